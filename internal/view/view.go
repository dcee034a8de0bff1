// Package view renders storefront screens as plain text. Every view
// declares its own fallback, and Boundary swaps it in when rendering fails
// so a broken panel never takes the rest of the output down with it.
package view

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
)

type View interface {
	Render(w io.Writer) error
	Fallback(w io.Writer, err error)
}

// PanicError is a panic recovered while rendering.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("render panicked: %v", e.Value) }

// Boundary renders v into a buffer and copies it to w. If Render returns an
// error or panics, nothing of the partial output is written; the fallback
// is written instead and the error returned.
func Boundary(w io.Writer, v View) (err error) {
	var buf bytes.Buffer
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r}
			}
		}()
		err = v.Render(&buf)
	}()

	if err != nil {
		v.Fallback(w, err)
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

// Money formats an amount the way the shop displays prices.
func Money(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func heading(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len([]rune(title))))
}

// fallback writes the standard error panel.
func fallback(w io.Writer, title, message string, err error) {
	fmt.Fprintf(w, "%s\n%s\n", title, message)
	if err != nil {
		fmt.Fprintf(w, "(%v)\n", err)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
