/*
Package definition loads machine definition files.

A definition bundles rule text with the start state, a default input, an
optional step limit and the state names a caller reads as accept/reject.
YAML and JSON files are decoded through mapstructure with weak typing, so
"step_limit: '200'" is accepted. Any other extension is read as bare rule
text. A few sample machines are embedded and available through Builtin.
*/
package definition
