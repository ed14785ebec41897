// Package dictionary provides word list management for the Codenames server.
//
// The dictionary package handles:
//   - Loading word lists from YAML files
//   - Normalizing and de-duplicating words
//   - Falling back to an embedded default list
//   - Picking random words for a new board
//
// Dictionary Format:
//
// Dictionaries are YAML files in the dictionaries directory. Files are
// loaded in lexical order and addressed by their position, so the first
// file is dictionary 0.
//
//	name: Classic
//	description: The standard word set
//	warn: false
//	words: |
//	  apple, bank; bridge
//	  castle ...
//
// The words field may also be a YAML sequence. Words are split on
// whitespace, commas and semicolons.
//
// Usage:
//
//	manager, err := dictionary.NewManager("dictionaries", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	dict, err := manager.Get(0)
//	words, err := dict.RandomWords(engine.DefaultBoardSize)
package dictionary
