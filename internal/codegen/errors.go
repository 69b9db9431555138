package codegen

import "fmt"

// ContractError reports an instruction stream that breaks the front-end
// contract: wrong operand counts, unresolvable bindings, malformed
// structure. It is raised with panic since it always indicates a defect in
// the producer, never a user error.
type ContractError struct {
	Function string
	Instr    int
	Msg      string
}

func (e *ContractError) Error() string {
	if e.Instr < 0 {
		return fmt.Sprintf("contract violation in %s: %s", e.Function, e.Msg)
	}
	return fmt.Sprintf("contract violation in %s at %d: %s", e.Function, e.Instr, e.Msg)
}

func (b *builder) contractf(i int, format string, args ...interface{}) {
	panic(&ContractError{Function: b.name, Instr: i, Msg: fmt.Sprintf(format, args...)})
}
