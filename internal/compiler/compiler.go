// internal/compiler/compiler.go
package compiler

import (
	"slvm/internal/bytecode"
	"slvm/internal/diag"
	"slvm/internal/lexer"
)

// Compiler is the single recursive-descent pass that walks tokens and
// appends instructions directly to a Script's code buffers — there is
// no intermediate AST.
type Compiler struct {
	lex         *lexer.Lexer
	tok         lexer.Token
	script      *bytecode.Script
	Diagnostics []*diag.Diagnostic
}

// New constructs a Compiler ready to compile source, labeling
// diagnostics and the resulting Script with filename.
func New(filename, source string) *Compiler {
	c := &Compiler{
		lex:    lexer.New(source),
		script: bytecode.NewScript(filename),
	}
	c.advance()
	return c
}

// Compile compiles filename's source in one pass and returns the
// resulting Script along with any diagnostics raised along the way.
func Compile(filename, source string) (*bytecode.Script, []*diag.Diagnostic) {
	c := New(filename, source)
	return c.Run(), c.Diagnostics
}

func (c *Compiler) errorf(format string, args ...interface{}) {
	c.Diagnostics = append(c.Diagnostics, diag.Compilef(c.script.Filename, format, args...))
}

func (c *Compiler) advance() {
	c.tok = c.lex.Next()
}

// expect advances past tok.Kind if it matches kind, else records a
// diagnostic and leaves the cursor where it is: a wrong-token error
// aborts the affected form with no synchronization.
func (c *Compiler) expect(kind lexer.TokenKind) bool {
	if c.tok.Kind != kind {
		c.errorf("expected %s, got %s", kind, c.tok.Kind)
		return false
	}
	c.advance()
	return true
}

// Run repeatedly compiles one top-level expression in statement context
// until EOF, then appends Halt.
func (c *Compiler) Run() *bytecode.Script {
	for c.tok.Kind != lexer.TokenEOF {
		c.compileExpr(&c.script.Code, true)
	}
	bytecode.Emit(&c.script.Code, bytecode.OpHalt, 0)
	return c.script
}

// compileExpr compiles one expr, appending to code. In statement
// context (stmt=true) it appends a trailing Pop; in expression context
// it does not. Inside a function body, compileFuncBody removes the
// trailing statement's Pop so that statement's value becomes the
// function's return value.
func (c *Compiler) compileExpr(code *[]byte, stmt bool) {
	switch c.tok.Kind {
	case lexer.TokenNumber:
		c.compileNumber(code)
	case lexer.TokenString:
		c.compileString(code)
	case lexer.TokenSymbol:
		c.compileSymbolAtom(code)
	case lexer.TokenHash:
		c.advance()
		c.compileReaderMacro(code)
	case lexer.TokenLParen:
		c.advance()
		c.compileFormBody(code)
	default:
		c.errorf("unexpected token %s", c.tok.Kind)
		c.advance()
		return
	}
	if stmt {
		bytecode.Emit(code, bytecode.OpPop, 0)
	}
}

func (c *Compiler) compileNumber(code *[]byte) {
	idx, ok := c.script.InternNumber(c.tok.Num)
	c.advance()
	if !ok {
		c.errorf("too many distinct numbers (limit %d)", bytecode.MaxInternEntries)
		return
	}
	bytecode.Emit(code, bytecode.OpLoadNumber, byte(idx))
}

func (c *Compiler) compileString(code *[]byte) {
	idx, ok := c.internString(c.tok.Text)
	c.advance()
	if !ok {
		return
	}
	bytecode.Emit(code, bytecode.OpLoadString, byte(idx))
}

func (c *Compiler) compileSymbolAtom(code *[]byte) {
	text := c.tok.Text
	c.advance()
	switch text {
	case "true":
		bytecode.Emit(code, bytecode.OpLoadBool, 1)
	case "false":
		bytecode.Emit(code, bytecode.OpLoadBool, 0)
	default:
		idx, ok := c.internString(text)
		if !ok {
			return
		}
		bytecode.Emit(code, bytecode.OpLoadSymbol, byte(idx))
	}
}

// compileReaderMacro compiles `#expr` into a freshly-allocated,
// zero-argument anonymous function.
func (c *Compiler) compileReaderMacro(code *[]byte) {
	nameIdx, ok := c.internString(bytecode.AnonName)
	if !ok {
		return
	}
	fn := &bytecode.FuncDef{NameIndex: nameIdx}
	c.compileExpr(&fn.Code, false)
	bytecode.Emit(&fn.Code, bytecode.OpReturn, 0)

	idx, ok := c.script.AddFunc(fn)
	if !ok {
		c.errorf("too many functions (limit %d)", bytecode.MaxInternEntries)
		return
	}
	bytecode.Emit(code, bytecode.OpLoadFunc, byte(idx))
}

// compileFormBody compiles the inside of a '(' ... ')' form, the
// opening paren already consumed. It dispatches on a reserved head
// symbol or falls through to a plain call.
func (c *Compiler) compileFormBody(code *[]byte) {
	if c.tok.Kind == lexer.TokenSymbol {
		switch c.tok.Text {
		case "def":
			c.compileDef(code, bytecode.OpDef)
			return
		case "defonce":
			c.compileDef(code, bytecode.OpDefonce)
			return
		case "set":
			c.compileDef(code, bytecode.OpSet)
			return
		case "defun":
			c.compileDefun(code)
			return
		}
	}
	c.compileCall(code)
}

// compileDef handles `def`, `defonce`, and `set`, which all share the
// shape: reserved head, a Symbol, an expression, emit op with the
// symbol's interned index.
func (c *Compiler) compileDef(code *[]byte, op bytecode.Op) {
	c.advance() // reserved head symbol
	if c.tok.Kind != lexer.TokenSymbol {
		c.errorf("expected symbol after def/defonce/set, got %s", c.tok.Kind)
		return
	}
	name := c.tok.Text
	c.advance()
	idx, ok := c.internString(name)
	if !ok {
		return
	}
	c.compileExpr(code, false)
	bytecode.Emit(code, op, byte(idx))
	c.expect(lexer.TokenRParen)
}

// compileDefun handles `(defun name [args...] body...)`.
func (c *Compiler) compileDefun(code *[]byte) {
	c.advance() // 'defun'
	if c.tok.Kind != lexer.TokenSymbol {
		c.errorf("expected function name after defun, got %s", c.tok.Kind)
		return
	}
	fnName := c.tok.Text
	c.advance()
	nameIdx, ok := c.internString(fnName)
	if !ok {
		return
	}
	if !c.expect(lexer.TokenLBracket) {
		return
	}

	var params []int
	for c.tok.Kind != lexer.TokenRBracket && c.tok.Kind != lexer.TokenEOF {
		if c.tok.Kind != lexer.TokenSymbol {
			c.errorf("expected parameter symbol, got %s", c.tok.Kind)
			return
		}
		if len(params) >= bytecode.MaxParams {
			c.errorf("too many parameters (limit %d)", bytecode.MaxParams)
			return
		}
		pidx, ok := c.internString(c.tok.Text)
		if !ok {
			return
		}
		params = append(params, pidx)
		c.advance()
	}
	if !c.expect(lexer.TokenRBracket) {
		return
	}

	fn := &bytecode.FuncDef{NameIndex: nameIdx, Params: params}
	for i := len(params) - 1; i >= 0; i-- {
		bytecode.Emit(&fn.Code, bytecode.OpDef, byte(params[i]))
	}
	c.compileFuncBody(&fn.Code)
	bytecode.Emit(&fn.Code, bytecode.OpReturn, 0)
	c.expect(lexer.TokenRParen)

	idx, ok := c.script.AddFunc(fn)
	if !ok {
		c.errorf("too many functions (limit %d)", bytecode.MaxInternEntries)
		return
	}
	bytecode.Emit(code, bytecode.OpDefun, byte(idx))
}

// compileFuncBody compiles a function's statements, each in statement
// context, then drops the trailing statement's Pop: the coroutine
// exhaustion check (a suspended frame's next instruction being Return)
// and the ordinary case of a function's last expression becoming its
// result both depend on Return following directly after the body's
// final value, with nothing left to pop it away first.
func (c *Compiler) compileFuncBody(code *[]byte) {
	for c.tok.Kind != lexer.TokenRParen && c.tok.Kind != lexer.TokenEOF {
		c.compileExpr(code, true)
		if c.tok.Kind == lexer.TokenRParen {
			if n := len(*code); n >= 2 {
				*code = (*code)[:n-2]
			}
		}
	}
}

// compileCall handles a plain call form: every sub-expression in order
// (head first, then arguments), then FuncCall (N-1).
func (c *Compiler) compileCall(code *[]byte) {
	n := 0
	for c.tok.Kind != lexer.TokenRParen && c.tok.Kind != lexer.TokenEOF {
		c.compileExpr(code, false)
		n++
	}
	c.expect(lexer.TokenRParen)
	if n == 0 {
		c.errorf("empty call form")
		return
	}
	bytecode.Emit(code, bytecode.OpFuncCall, byte(n-1))
}

func (c *Compiler) internString(text string) (int, bool) {
	idx, ok := c.script.InternString(text)
	if !ok {
		c.errorf("too many distinct strings (limit %d)", bytecode.MaxInternEntries)
	}
	return idx, ok
}
