// Package model defines the declarative descriptors the form engine consumes.
// A Field names one input (its payload key, initial value, data type and
// widget kind), a Step groups the fields of one wizard page, and a Definition
// lists the steps plus the endpoint the merged payload is submitted to.
//
// Data types and widget kinds are independent: a "select" data type can be
// edited through a select widget or a hidden input, and renderers dispatch on
// UIType only. Field names are unique per descriptor array; Definition.Validate
// also rejects the same name appearing in two steps because step values are
// merged into one payload and backend errors are routed back by path.
package model
