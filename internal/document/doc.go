// Package document wraps an HTML parse tree with the few operations the
// proxy needs: find elements by tag and attribute, read and set
// attributes, and render the tree back to text.
//
// Parsing uses golang.org/x/net/html, which follows the HTML5 parsing
// algorithm. Malformed input therefore never fails to parse; it is
// repaired the way a browser would repair it.
package document
