// Package pongo implements template.Engine on top of pongo2, a Django/Jinja
// style engine ({{ name }}, {% if %}, {{ value|filter }}).
//
// Output is HTML-autoescaped. template.Text values and the result of
// template.TextFunc bindings are marked safe and written verbatim.
package pongo
