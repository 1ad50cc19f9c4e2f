package types

// Parameter is one entry of an operation's parameters list.
type Parameter struct {
	Name string
	In   string
}

// Operation is a method of a path item, upper-cased, with its parameters
// in document order.
type Operation struct {
	Method     string
	Parameters []Parameter
}

// PathItem is one key of the document's paths object.
type PathItem struct {
	Path       string
	Operations []Operation
}
