package query

import (
	"fmt"
	"strings"
)

// ToSQL compiles the predicate into a SQLite WHERE fragment with ?
// placeholders. Every column leaf is checked against the schema; compound
// children are parenthesized unconditionally, which keeps the output
// correct without a precedence table.
func (p Predicate) ToSQL(schema Schema) (string, []any, error) {
	c := &compiler{schema: schema}
	if err := c.visit(p); err != nil {
		return "", nil, err
	}
	return c.sql.String(), c.args, nil
}

type compiler struct {
	schema Schema
	sql    strings.Builder
	args   []any
}

func (c *compiler) visit(p Predicate) error {
	switch p.kind {
	case kindAnd:
		return c.visitJunction(p.children, " AND ", "1=1")
	case kindOr:
		return c.visitJunction(p.children, " OR ", "1=0")
	case kindNot:
		c.sql.WriteString("NOT ")
		return c.visitChild(p.children[0])
	case kindCmp:
		return c.visitCmp(p)
	case kindIsNull:
		if !c.schema.Allows(p.field) {
			return fmt.Errorf("predicate references unknown column %q", p.field)
		}
		c.sql.WriteString(p.field)
		c.sql.WriteString(" IS NULL")
		return nil
	case kindExists:
		return c.visitExists(p)
	default:
		return fmt.Errorf("unknown predicate node kind %d", p.kind)
	}
}

func (c *compiler) visitJunction(children []Predicate, sep, identity string) error {
	if len(children) == 0 {
		c.sql.WriteString(identity)
		return nil
	}
	if len(children) == 1 {
		return c.visit(children[0])
	}
	for i, child := range children {
		if i > 0 {
			c.sql.WriteString(sep)
		}
		if err := c.visitChild(child); err != nil {
			return err
		}
	}
	return nil
}

// visitChild wraps compound nodes in parentheses, leaves as-is.
func (c *compiler) visitChild(p Predicate) error {
	switch p.kind {
	case kindAnd, kindOr:
		c.sql.WriteString("(")
		if err := c.visit(p); err != nil {
			return err
		}
		c.sql.WriteString(")")
		return nil
	default:
		return c.visit(p)
	}
}

func (c *compiler) visitCmp(p Predicate) error {
	if !c.schema.Allows(p.field) {
		return fmt.Errorf("predicate references unknown column %q", p.field)
	}
	c.sql.WriteString(p.field)
	c.sql.WriteString(" ")
	c.sql.WriteString(string(p.op))
	c.sql.WriteString(" ?")
	if p.op == OpLike {
		// Literal matching relies on the sanitizer's escape character.
		c.sql.WriteString(` ESCAPE '\'`)
	}
	c.args = append(c.args, p.value)
	return nil
}

func (c *compiler) visitExists(p Predicate) error {
	c.sql.WriteString("EXISTS (SELECT 1 FROM ")
	c.sql.WriteString(p.table)
	c.sql.WriteString(" AS ")
	c.sql.WriteString(p.alias)
	c.sql.WriteString(" WHERE ")
	c.sql.WriteString(p.on)
	c.sql.WriteString(" AND ")

	outer := c.schema
	c.schema = outer.With(p.alias + ".*")
	err := c.visitChild(p.children[0])
	c.schema = outer
	if err != nil {
		return err
	}
	c.sql.WriteString(")")
	return nil
}
