// Package quantity parses Kubernetes resource-quantity strings into
// normalized integer units: CPU into millicores, memory into bytes.
// The parsers are pure functions with no dependencies.
package quantity
