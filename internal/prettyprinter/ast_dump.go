package prettyprinter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veld-lang/veld/internal/ast"
)

// DumpJSON renders the AST as indented JSON for tooling.
func DumpJSON(program *ast.Program) (string, error) {
	out, err := json.MarshalIndent(nodeToMap(program), "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DumpTree renders the AST as an indented text tree for humans.
func DumpTree(program *ast.Program) string {
	var b strings.Builder
	writeTree(&b, nodeToMap(program), 0)
	return b.String()
}

func writeTree(b *strings.Builder, v interface{}, depth int) {
	indent := strings.Repeat("  ", depth)
	switch val := v.(type) {
	case map[string]interface{}:
		kind, _ := val["node"].(string)
		fmt.Fprintf(b, "%s%s", indent, kind)
		// scalar attributes on the same line
		for _, key := range sortedKeys(val) {
			if key == "node" {
				continue
			}
			switch child := val[key].(type) {
			case map[string]interface{}, []interface{}:
				continue
			default:
				fmt.Fprintf(b, " %s=%v", key, child)
			}
		}
		b.WriteByte('\n')
		for _, key := range sortedKeys(val) {
			switch child := val[key].(type) {
			case map[string]interface{}:
				writeTree(b, child, depth+1)
			case []interface{}:
				for _, item := range child {
					writeTree(b, item, depth+1)
				}
			}
		}
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// stable order: node first, then alphabetical
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

func nodeToMap(n interface{}) map[string]interface{} {
	switch node := n.(type) {
	case *ast.Program:
		return kids("Program", "statements", stmtList(node.Statements))
	case *ast.ValBinding:
		m := kids("ValBinding", "value", nodeToMap(node.Value))
		m["name"] = node.Name.Value
		m["mutable"] = node.Mutable
		if node.TypeAnnotation != nil {
			m["type"] = node.TypeAnnotation.String()
		}
		return m
	case *ast.AssignStatement:
		m := kids("Assign", "value", nodeToMap(node.Value))
		m["name"] = node.Name.Value
		return m
	case *ast.FunctionDeclaration:
		m := kids("Function", "body", nodeToMap(node.Body))
		m["name"] = node.Name.Value
		params := make([]interface{}, len(node.Params))
		for i, p := range node.Params {
			pm := map[string]interface{}{"node": "Param", "name": p.Name.Value}
			if p.TypeAnnotation != nil {
				pm["type"] = p.TypeAnnotation.String()
			}
			params[i] = pm
		}
		m["params"] = params
		if node.ReturnType != nil {
			m["returns"] = node.ReturnType.String()
		}
		if len(node.Contexts) > 0 {
			names := make([]string, len(node.Contexts))
			for i, c := range node.Contexts {
				names[i] = c.Value
			}
			m["contexts"] = strings.Join(names, ",")
		}
		return m
	case *ast.RecordDeclaration:
		return declWithFields("Record", node.Name.Value, node.Fields)
	case *ast.ContextDeclaration:
		return declWithFields("Context", node.Name.Value, node.Fields)
	case *ast.EnumDeclaration:
		variants := make([]interface{}, len(node.Variants))
		for i, v := range node.Variants {
			vm := map[string]interface{}{"node": "Variant", "name": v.Name.Value}
			if len(v.Payload) > 0 {
				parts := make([]string, len(v.Payload))
				for j, t := range v.Payload {
					parts[j] = t.String()
				}
				vm["payload"] = strings.Join(parts, ",")
			}
			variants[i] = vm
		}
		m := kids("Enum", "variants", variants)
		m["name"] = node.Name.Value
		return m
	case *ast.ImplBlock:
		methods := make([]interface{}, len(node.Methods))
		for i, meth := range node.Methods {
			methods[i] = nodeToMap(meth)
		}
		m := kids("Impl", "methods", methods)
		m["target"] = node.Target.Value
		return m
	case *ast.ExpressionStatement:
		return nodeToMap(node.Expression)

	case *ast.Identifier:
		return typed(node, map[string]interface{}{"node": "Identifier", "name": node.Value})
	case *ast.IntegerLiteral:
		return typed(node, map[string]interface{}{"node": "Int", "value": node.Value})
	case *ast.FloatLiteral:
		return typed(node, map[string]interface{}{"node": "Float", "value": node.Value})
	case *ast.BooleanLiteral:
		return typed(node, map[string]interface{}{"node": "Bool", "value": node.Value})
	case *ast.StringLiteral:
		return typed(node, map[string]interface{}{"node": "String", "value": node.Value})
	case *ast.PrefixExpression:
		m := kids("Prefix", "right", nodeToMap(node.Right))
		m["op"] = node.Operator
		return typed(node, m)
	case *ast.InfixExpression:
		m := map[string]interface{}{
			"node":  "Infix",
			"op":    node.Operator,
			"left":  nodeToMap(node.Left),
			"right": nodeToMap(node.Right),
		}
		return typed(node, m)
	case *ast.PipeExpression:
		op := "|>"
		if node.Mutable {
			op = "|>>"
		}
		m := map[string]interface{}{
			"node":  "Pipe",
			"op":    op,
			"left":  nodeToMap(node.Left),
			"right": nodeToMap(node.Right),
		}
		return typed(node, m)
	case *ast.CallExpression:
		m := map[string]interface{}{
			"node":     "Call",
			"function": nodeToMap(node.Function),
			"args":     exprList(node.Arguments),
		}
		if node.FromOSV {
			m["osv"] = true
		}
		return typed(node, m)
	case *ast.BlockExpression:
		return typed(node, kids("Block", "statements", stmtList(node.Statements)))
	case *ast.IfExpression:
		m := map[string]interface{}{
			"node":        "If",
			"condition":   nodeToMap(node.Condition),
			"consequence": nodeToMap(node.Consequence),
		}
		if node.Alternative != nil {
			m["alternative"] = nodeToMap(node.Alternative)
		}
		return typed(node, m)
	case *ast.MatchExpression:
		arms := make([]interface{}, len(node.Arms))
		for i, arm := range node.Arms {
			am := map[string]interface{}{
				"node":    "Arm",
				"pattern": NewCodePrinter().pattern(arm.Pattern),
				"body":    nodeToMap(arm.Body),
			}
			if arm.Guard != nil {
				am["guard"] = nodeToMap(arm.Guard)
			}
			arms[i] = am
		}
		m := map[string]interface{}{
			"node":      "Match",
			"scrutinee": nodeToMap(node.Scrutinee),
			"arms":      arms,
		}
		return typed(node, m)
	case *ast.WithContextExpression:
		m := map[string]interface{}{
			"node":    "WithContext",
			"context": node.Context.Value,
			"fields":  fieldInitList(node.Fields),
			"body":    nodeToMap(node.Body),
		}
		return typed(node, m)
	case *ast.WithLifetimeExpression:
		m := map[string]interface{}{
			"node":     "WithLifetime",
			"lifetime": node.Name,
			"body":     nodeToMap(node.Body),
		}
		if node.Within != "" {
			m["within"] = node.Within
		}
		return typed(node, m)
	case *ast.FieldAccess:
		m := map[string]interface{}{
			"node":   "FieldAccess",
			"object": nodeToMap(node.Object),
			"field":  node.Field.Value,
		}
		return typed(node, m)
	case *ast.MethodCall:
		m := map[string]interface{}{
			"node":   "MethodCall",
			"object": nodeToMap(node.Object),
			"method": node.Method.Value,
			"args":   exprList(node.Arguments),
		}
		return typed(node, m)
	case *ast.CloneExpression:
		m := map[string]interface{}{
			"node":      "Clone",
			"source":    nodeToMap(node.Source),
			"overrides": fieldInitList(node.Overrides),
		}
		return typed(node, m)
	case *ast.FreezeExpression:
		return typed(node, kids("Freeze", "target", nodeToMap(node.Target)))
	case *ast.RecordLiteral:
		m := map[string]interface{}{
			"node":   "RecordLiteral",
			"name":   node.Name.Value,
			"fields": fieldInitList(node.Fields),
		}
		return typed(node, m)
	case *ast.ListLiteral:
		return typed(node, kids("List", "elements", exprList(node.Elements)))
	case *ast.TupleLiteral:
		return typed(node, kids("Tuple", "elements", exprList(node.Elements)))
	}
	return map[string]interface{}{"node": fmt.Sprintf("%T", n)}
}

func kids(name, key string, children interface{}) map[string]interface{} {
	return map[string]interface{}{"node": name, key: children}
}

func declWithFields(kind, name string, fields []*ast.FieldDef) map[string]interface{} {
	fs := make([]interface{}, len(fields))
	for i, f := range fields {
		fs[i] = map[string]interface{}{
			"node": "Field",
			"name": f.Name.Value,
			"type": f.TypeAnnotation.String(),
		}
	}
	m := kids(kind, "fields", fs)
	m["name"] = name
	return m
}

// typed attaches the checker's resolved type when present.
func typed(e ast.Expression, m map[string]interface{}) map[string]interface{} {
	if t := e.ResolvedType(); t != nil {
		m["resolvedType"] = t.String()
	}
	return m
}

func stmtList(stmts []ast.Statement) []interface{} {
	out := make([]interface{}, len(stmts))
	for i, s := range stmts {
		out[i] = nodeToMap(s)
	}
	return out
}

func exprList(exprs []ast.Expression) []interface{} {
	out := make([]interface{}, len(exprs))
	for i, e := range exprs {
		out[i] = nodeToMap(e)
	}
	return out
}

func fieldInitList(inits []*ast.FieldInit) []interface{} {
	out := make([]interface{}, len(inits))
	for i, init := range inits {
		out[i] = map[string]interface{}{
			"node":  "FieldInit",
			"name":  init.Name.Value,
			"value": nodeToMap(init.Value),
		}
	}
	return out
}
