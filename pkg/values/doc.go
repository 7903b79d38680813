// Package values derives, patches and combines the plain value maps that back
// a form. Values are nested map[string]any trees addressed by dotted paths
// ("farmer.address.village"); numeric segments index slices.
package values
