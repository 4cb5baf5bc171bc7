package grammar

import (
	_ "embed"
	"sync"
)

// DefaultStart is the start rule of the built-in command grammar.
const DefaultStart = "sentence"

//go:embed commands.grammar
var commandsSource string

var (
	defaultOnce    sync.Once
	defaultGrammar *Grammar
)

// Source returns the description text of the built-in command grammar.
func Source() string { return commandsSource }

// Default returns the built-in command grammar. It is built once and shared.
func Default() *Grammar {
	defaultOnce.Do(func() {
		defaultGrammar = MustParse("commands.grammar", commandsSource, DefaultStart)
	})
	return defaultGrammar
}

// MustParse is like Parse but panics on error. It is meant for grammars
// compiled into the binary.
func MustParse(name, src, start string) *Grammar {
	g, err := Parse(name, src, start)
	if err != nil {
		panic("grammar: " + err.Error())
	}
	return g
}
