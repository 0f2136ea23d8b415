// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package engine

import (
	"github.com/dop251/goja/parser"
)

// countTopLevelStatements parses source with goja's own parser (the same
// parser goja.Compile uses internally) and returns the number of
// top-level statements in its program body.
//
// This is the static "opcode dispatch" charge basis described in
// gas/accountant.go's doc comment: goja exposes no per-bytecode-
// instruction hook, so this shell charges a lump
// opcodeGas = OpcodeDispatch × statementCount once per eval, counted from
// the parsed AST rather than from dynamic execution steps. Nested
// statements (loop/if bodies) are deliberately not unrolled into the
// count — that would require tracking goja's internal AST statement
// shapes beyond the stable top-level Program.Body, and the invariant
// that actually matters (gasUsed is deterministic and reproducible)
// holds either way.
func countTopLevelStatements(source string) (int, error) {
	prog, err := parser.ParseFile(nil, "<eval>", source, 0)
	if err != nil {
		return 0, err
	}
	return len(prog.Body), nil
}
