// Package shale constructs interpreters with the standard extension set
// installed. Embedders who want a bare engine with no globals defined can
// use the interp package directly.
package shale

import (
	"github.com/shale-lang/shale/extn/kernel"
	"github.com/shale-lang/shale/extn/securerandom"
	"github.com/shale-lang/shale/interp"

	// Register the reference VM with the engine factory.
	_ "github.com/shale-lang/shale/engine/shalevm"
)

// New returns a bootstrapped interpreter with the kernel and SecureRandom
// extensions defined. Standard extensions are installed before any
// extensions carried in opts, so user extensions may call into them.
func New(opts ...interp.Option) (*interp.Interpreter, error) {
	standard := []interp.Option{
		interp.WithExtensions(kernel.Init, securerandom.Init),
	}
	return interp.New(append(standard, opts...)...)
}
