package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shale-lang/shale/interp"
)

func newEvalCmd(c *cli) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "eval -e <code>",
		Short: "Evaluate a snippet and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := c.newInterpreter()
			if err != nil {
				return err
			}
			defer i.Close()

			result, err := i.Eval([]byte(code))
			if err != nil {
				var exc *interp.Exception
				if errors.As(err, &exc) {
					fmt.Fprintln(os.Stderr, exc.Error())
					return errScriptFailed
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Inspect())
			return nil
		},
	}
	cmd.Flags().StringVarP(&code, "code", "e", "", "code to evaluate")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}
