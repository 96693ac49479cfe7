// Package volume maps human-assigned filesystem labels to their current
// mount paths. Labels survive device renumbering, so configuration refers to
// volumes by label and resolution happens freshly per operation.
package volume
