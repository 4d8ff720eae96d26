// Package writers holds small output-plumbing helpers shared by the app
// layer.
package writers
