/*
Package dsl builds transition tables in Go instead of rule text.

	b := dsl.New()

	b.State("q0").
		On('0', "q0", '1', domain.Right).
		On('_', "done", '_', domain.Left)

	table, err := b.Build()   // *domain.Table for the engine
	text := b.Rules()         // the same table as parseable rule text

Reading or writing domain.Wildcard ('*') declares the wildcard rule of the
state; Otherwise is shorthand for a wildcard read that keeps the cell.
*/
package dsl
