package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidLabel is returned when a label reference cannot be parsed.
	ErrInvalidLabel = zerr.New("invalid label")

	// ErrInvalidSourceFile is returned when a path escapes the source root.
	ErrInvalidSourceFile = zerr.New("invalid source file path")

	// ErrInvalidTargetType is returned when a declaration uses an unknown target type.
	ErrInvalidTargetType = zerr.New("invalid target type")

	// ErrMissingTarget is returned when a dependency list references an undefined label.
	ErrMissingTarget = zerr.New("undefined target")

	// ErrCycleDetected is returned when the dependency graph contains a cycle.
	ErrCycleDetected = zerr.New("dependency cycle detected")

	// ErrDuplicateDefinition is returned when a label is defined more than once.
	ErrDuplicateDefinition = zerr.New("duplicate definition")

	// ErrDepKindMismatch is returned when a deps list references an item that is not a target.
	ErrDepKindMismatch = zerr.New("dependency is not a target")

	// ErrMissingToolchain is returned when a target's toolchain is not defined.
	ErrMissingToolchain = zerr.New("toolchain not defined")

	// ErrMissingTool is returned when a toolchain lacks the tool a target needs.
	ErrMissingTool = zerr.New("toolchain does not define required tool")

	// ErrEmptyRule is returned when rule writing produces empty output for a
	// target that must have a real rule.
	ErrEmptyRule = zerr.New("rule writer produced empty rule")

	// ErrUnknownGeneratedInputs is returned when targets consume generated
	// files not produced by any reachable dependency.
	ErrUnknownGeneratedInputs = zerr.New("generated inputs not produced by any dependency")

	// ErrDescriptionReadFailed is returned when a description file cannot be read.
	ErrDescriptionReadFailed = zerr.New("failed to read description file")

	// ErrDescriptionParseFailed is returned when a description file cannot be parsed.
	ErrDescriptionParseFailed = zerr.New("failed to parse description file")

	// ErrRootNotFound is returned when no root description file is found.
	ErrRootNotFound = zerr.New("could not find root description file")

	// ErrInvalidOutDir is returned when the output directory argument is unusable.
	ErrInvalidOutDir = zerr.New("invalid output directory")

	// ErrUnknownIDE is returned for an unrecognized --ide value.
	ErrUnknownIDE = zerr.New("unknown IDE")

	// ErrUnknownBuildSystem is returned for an unrecognized --xcode-build-system value.
	ErrUnknownBuildSystem = zerr.New("unknown build system")

	// ErrGenFailed names a failed generation run. The gen driver does not
	// return it; it returns the underlying cause.
	ErrGenFailed = zerr.New("generation failed")
)
