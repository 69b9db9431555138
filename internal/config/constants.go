package config

const ProgramFileExt = ".yaml"

// ProgramFileExtensions are all recognized program file extensions
var ProgramFileExtensions = []string{".yaml", ".yml"}

// OptionsFileName is looked up next to the program when no options file is given
const OptionsFileName = "blockc.yaml"

// Engine defaults
const (
	DefaultTicks = 1000 // slices run before a program is considered stuck
	DefaultSeed  = 1
)

// Color modes for diagnostics
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)
