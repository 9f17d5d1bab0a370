// Package prettyprinter renders an AST back to canonical source and, for
// tooling, as an annotated tree. The code printer is the formatter's
// engine: parse then print yields one canonical layout.
package prettyprinter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/veld-lang/veld/internal/ast"
)

// Operator precedence (higher = binds tighter), mirroring the parser.
var operatorPrecedence = map[string]int{
	"|>":  1,
	"|>>": 1,
	"==":  2,
	"!=":  2,
	"<":   3,
	">":   3,
	"<=":  3,
	">=":  3,
	"+":   4,
	"-":   4,
	"*":   5,
	"/":   5,
	"%":   5,
}

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 6
}

type CodePrinter struct {
	buf    bytes.Buffer
	indent int
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// Print renders a whole program in canonical form.
func (p *CodePrinter) Print(program *ast.Program) string {
	p.buf.Reset()
	for i, stmt := range program.Statements {
		if i > 0 {
			p.write("\n")
			if isDeclaration(stmt) || isDeclaration(program.Statements[i-1]) {
				p.write("\n")
			}
		}
		p.statement(stmt)
	}
	p.write("\n")
	return p.buf.String()
}

func isDeclaration(s ast.Statement) bool {
	switch s.(type) {
	case *ast.FunctionDeclaration, *ast.RecordDeclaration, *ast.EnumDeclaration,
		*ast.ContextDeclaration, *ast.ImplBlock:
		return true
	}
	return false
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.write("    ")
	}
}

func (p *CodePrinter) statement(s ast.Statement) {
	p.writeIndent()
	switch st := s.(type) {
	case *ast.ValBinding:
		if st.Mutable {
			p.write("mut ")
		}
		p.write("val " + st.Name.Value)
		if st.TypeAnnotation != nil {
			p.write(": " + st.TypeAnnotation.String())
		}
		p.write(" = ")
		p.expression(st.Value, 0)
	case *ast.AssignStatement:
		p.write(st.Name.Value + " = ")
		p.expression(st.Value, 0)
	case *ast.FunctionDeclaration:
		p.function(st)
	case *ast.RecordDeclaration:
		p.write("record " + st.Name.Value + " {\n")
		p.fields(st.Fields)
		p.writeIndent()
		p.write("}")
	case *ast.ContextDeclaration:
		p.write("context " + st.Name.Value + " {\n")
		p.fields(st.Fields)
		p.writeIndent()
		p.write("}")
	case *ast.EnumDeclaration:
		p.write("enum " + st.Name.Value + " {\n")
		p.indent++
		for _, v := range st.Variants {
			p.writeIndent()
			p.write(v.Name.Value)
			if len(v.Payload) > 0 {
				parts := make([]string, len(v.Payload))
				for i, t := range v.Payload {
					parts[i] = t.String()
				}
				p.write("(" + strings.Join(parts, ", ") + ")")
			}
			p.write("\n")
		}
		p.indent--
		p.writeIndent()
		p.write("}")
	case *ast.ImplBlock:
		p.write("impl " + st.Target.Value + " {\n")
		p.indent++
		for i, m := range st.Methods {
			if i > 0 {
				p.write("\n")
			}
			p.writeIndent()
			p.function(m)
			p.write("\n")
		}
		p.indent--
		p.writeIndent()
		p.write("}")
	case *ast.ExpressionStatement:
		p.expression(st.Expression, 0)
	}
}

func (p *CodePrinter) fields(fields []*ast.FieldDef) {
	p.indent++
	for _, f := range fields {
		p.writeIndent()
		p.write(f.Name.Value + ": " + f.TypeAnnotation.String() + "\n")
	}
	p.indent--
}

func (p *CodePrinter) function(fd *ast.FunctionDeclaration) {
	p.write("fun " + fd.Name.Value + "(")
	for i, param := range fd.Params {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Name.Value)
		if param.TypeAnnotation != nil {
			p.write(": " + param.TypeAnnotation.String())
		}
	}
	p.write(")")
	if fd.ReturnType != nil {
		p.write(" -> " + fd.ReturnType.String())
	}
	if len(fd.Contexts) > 0 {
		names := make([]string, len(fd.Contexts))
		for i, c := range fd.Contexts {
			names[i] = c.Value
		}
		p.write(" with " + strings.Join(names, ", "))
	}
	p.write(" = ")
	p.expression(fd.Body, 0)
}

func (p *CodePrinter) expression(e ast.Expression, parentPrec int) {
	switch ex := e.(type) {
	case *ast.Identifier:
		p.write(ex.Value)
	case *ast.IntegerLiteral:
		p.write(strconv.FormatInt(ex.Value, 10))
	case *ast.FloatLiteral:
		s := strconv.FormatFloat(ex.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		p.write(s)
	case *ast.BooleanLiteral:
		p.write(strconv.FormatBool(ex.Value))
	case *ast.StringLiteral:
		p.write(strconv.Quote(ex.Value))
	case *ast.PrefixExpression:
		p.write(ex.Operator)
		p.expression(ex.Right, getPrecedence("prefix"))
	case *ast.InfixExpression:
		prec := getPrecedence(ex.Operator)
		if prec < parentPrec {
			p.write("(")
		}
		p.expression(ex.Left, prec)
		p.write(" " + ex.Operator + " ")
		p.expression(ex.Right, prec+1)
		if prec < parentPrec {
			p.write(")")
		}
	case *ast.PipeExpression:
		op := "|>"
		if ex.Mutable {
			op = "|>>"
		}
		p.expression(ex.Left, getPrecedence(op))
		p.write(" " + op + " ")
		p.expression(ex.Right, getPrecedence(op)+1)
	case *ast.CallExpression:
		p.expression(ex.Function, 7)
		p.write("(")
		for i, arg := range ex.Arguments {
			if i > 0 {
				p.write(", ")
			}
			p.expression(arg, 0)
		}
		p.write(")")
	case *ast.BlockExpression:
		p.blockExpr(ex)
	case *ast.IfExpression:
		p.write("if ")
		p.expression(ex.Condition, 0)
		p.write(" ")
		p.blockExpr(ex.Consequence)
		if ex.Alternative != nil {
			p.write(" else ")
			p.expression(ex.Alternative, 0)
		}
	case *ast.MatchExpression:
		p.write("match ")
		p.expression(ex.Scrutinee, 0)
		p.write(" {\n")
		p.indent++
		for _, arm := range ex.Arms {
			p.writeIndent()
			p.write(p.pattern(arm.Pattern))
			if arm.Guard != nil {
				p.write(" if ")
				p.expression(arm.Guard, 0)
			}
			p.write(" -> ")
			p.blockExpr(arm.Body)
			p.write("\n")
		}
		p.indent--
		p.writeIndent()
		p.write("}")
	case *ast.WithContextExpression:
		p.write("with " + ex.Context.Value + " ")
		p.fieldInits(ex.Fields)
		p.write(" ")
		p.blockExpr(ex.Body)
	case *ast.WithLifetimeExpression:
		p.write("with lifetime<'" + ex.Name)
		if ex.Within != "" {
			p.write(" within '" + ex.Within)
		}
		p.write("> ")
		p.blockExpr(ex.Body)
	case *ast.FieldAccess:
		p.expression(ex.Object, 7)
		p.write("." + ex.Field.Value)
	case *ast.MethodCall:
		p.expression(ex.Object, 7)
		p.write("." + ex.Method.Value + "(")
		for i, arg := range ex.Arguments {
			if i > 0 {
				p.write(", ")
			}
			p.expression(arg, 0)
		}
		p.write(")")
	case *ast.CloneExpression:
		p.expression(ex.Source, 7)
		p.write(".clone")
		if len(ex.Overrides) > 0 {
			p.write(" ")
			p.fieldInits(ex.Overrides)
		}
	case *ast.FreezeExpression:
		p.expression(ex.Target, 7)
		p.write(".freeze")
	case *ast.RecordLiteral:
		p.write(ex.Name.Value + " ")
		p.fieldInits(ex.Fields)
	case *ast.ListLiteral:
		p.write("[")
		for i, el := range ex.Elements {
			if i > 0 {
				p.write(", ")
			}
			p.expression(el, 0)
		}
		p.write("]")
	case *ast.TupleLiteral:
		p.write("(")
		for i, el := range ex.Elements {
			if i > 0 {
				p.write(", ")
			}
			p.expression(el, 0)
		}
		p.write(")")
	default:
		p.write(fmt.Sprintf("/* ? %T */", e))
	}
}

func (p *CodePrinter) blockExpr(blk *ast.BlockExpression) {
	if len(blk.Statements) == 0 {
		p.write("{ }")
		return
	}
	p.write("{\n")
	p.indent++
	for _, s := range blk.Statements {
		p.statement(s)
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) fieldInits(inits []*ast.FieldInit) {
	parts := make([]string, len(inits))
	for i, init := range inits {
		sub := NewCodePrinter()
		sub.indent = p.indent
		sub.expression(init.Value, 0)
		parts[i] = init.Name.Value + ": " + sub.buf.String()
	}
	p.write("{ " + strings.Join(parts, ", ") + " }")
}

func (p *CodePrinter) pattern(pat ast.Pattern) string {
	switch pt := pat.(type) {
	case *ast.WildcardPattern:
		return "_"
	case *ast.IdentifierPattern:
		return pt.Name
	case *ast.LiteralPattern:
		sub := NewCodePrinter()
		sub.expression(pt.Value, 0)
		return sub.buf.String()
	case *ast.ConstructorPattern:
		if len(pt.Elements) == 0 {
			return pt.Name.Value
		}
		parts := make([]string, len(pt.Elements))
		for i, el := range pt.Elements {
			parts[i] = p.pattern(el)
		}
		return pt.Name.Value + "(" + strings.Join(parts, ", ") + ")"
	case *ast.ListPattern:
		if pt.Empty {
			return "[]"
		}
		return "[" + p.pattern(pt.Head) + " | " + p.pattern(pt.Tail) + "]"
	case *ast.RecordPattern:
		parts := make([]string, len(pt.Fields))
		for i, f := range pt.Fields {
			if f.Pattern == nil {
				parts[i] = f.Name.Value
			} else {
				parts[i] = f.Name.Value + ": " + p.pattern(f.Pattern)
			}
		}
		name := ""
		if pt.Name != nil {
			name = pt.Name.Value + " "
		}
		return name + "{ " + strings.Join(parts, ", ") + " }"
	}
	return "_"
}
