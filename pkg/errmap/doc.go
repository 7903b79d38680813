// Package errmap reconciles backend error payloads with the fields of a
// wizard. GetErrorPaths flattens an error object into dotted leaf paths,
// SetFormErrors applies a payload to a single form when it touches that
// form's fields, and Route distributes one payload across every step using
// the definition's ownership map. Paths no field owns become non-field
// errors so that no message is silently dropped.
package errmap
