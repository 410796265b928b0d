package models

import "slices"

// States are the Brazilian federative units accepted in User.State.
var States = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO", "MA", "MT", "MS", "MG", "PA",
	"PB", "PR", "PE", "PI", "RJ", "RN", "RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

func IsValidState(s string) bool {
	return slices.Contains(States, s)
}
