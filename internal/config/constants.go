package config

const SourceFileExt = ".veld"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".veld", ".vd"}

// OutputFileExt is the extension of the compiled artifact.
const OutputFileExt = ".wat"

// ProjectFileName is the optional per-project configuration file.
const ProjectFileName = "veld.yaml"

// Built-in function names.
const (
	PrintlnFuncName = "println"
	PrintFuncName   = "print"
	ShowFuncName    = "show"
	ExitFuncName    = "exit"
)

// Built-in type and constructor names.
const (
	ListTypeName   = "List"
	OptionTypeName = "Option"
	ResultTypeName = "Result"
	SomeCtorName   = "Some"
	NoneCtorName   = "None"
	OkCtorName     = "Ok"
	ErrCtorName    = "Err"
)
