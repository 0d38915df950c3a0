package engine

import "fmt"

// Factory is a function that creates a new State
type Factory func(config any) (State, error)

var engineFactories = make(map[string]Factory)

// Register registers an engine factory
func Register(name string, factory Factory) {
	if _, exists := engineFactories[name]; exists {
		panic(fmt.Sprintf("engine %s already registered", name))
	}
	engineFactories[name] = factory
}

// New creates a new State by engine name and config
func New(engineType string, config any) (State, error) {
	// Default to the reference VM if not specified
	if engineType == "" {
		engineType = "shale"
	}

	factory, ok := engineFactories[engineType]
	if !ok {
		return nil, fmt.Errorf("unknown engine type: %s: %w", engineType, ErrEngineNotFound)
	}

	return factory(config)
}

// List returns all registered engine types
func List() []string {
	types := make([]string, 0, len(engineFactories))
	for t := range engineFactories {
		types = append(types, t)
	}
	return types
}
