package main

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

var kinds = predict.Set{"income", "expense", "savings"}

// completion describes the command line for shell completion.
// Install with COMP_INSTALL=1 lifecompass.
func completion() *complete.Command {
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"percentile": {Flags: map[string]complete.Predictor{"kind": kinds}},
			"table": {Flags: map[string]complete.Predictor{
				"kind":   kinds,
				"render": predict.Nothing,
			}},
			"rating": {},
			"report": {Flags: map[string]complete.Predictor{
				"f":      predict.Files("*.json"),
				"mode":   predict.Set{"strict", "lenient"},
				"render": predict.Nothing,
			}},
			"token": {Flags: map[string]complete.Predictor{"user": predict.Something}},
			"help":  {},
		},
	}
}
