package vars

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ExampleCopy() {
	table := New()
	Copy(table, []string{"A=B", "C=D", "E", "F=G=H"})

	fmt.Printf("Environ(): %q\n", table.Environ())
	fmt.Printf("Get(\"F\"): %q\n", table.Get("F"))

	// Output: Environ(): ["A=B" "C=D" "E=" "F=G=H"]
	// Get("F"): "G=H"
}

func ExampleTable_Unset() {
	table := New()
	table.Set("A", "B")
	table.Set("C", "D")

	fmt.Println("Before:", table.Environ())
	table.Unset("A")
	fmt.Println("After:", table.Environ())

	// Output: Before: [A=B C=D]
	// After: [C=D]
}

func ExampleTable_Lookup() {
	table := New()
	table.Set("A", "B")

	val, ok := table.Lookup("A")
	fmt.Println("Existing", "val:", val, "ok:", ok)
	val, ok = table.Lookup("B")
	fmt.Println("Missing", "val:", val, "ok:", ok)

	// Output: Existing val: B ok: true
	// Missing val:  ok: false
}

func TestUnsetOnEmptyTable(t *testing.T) {
	table := New()
	table.Unset("missing")
	assert.Empty(t, table.Names())
}

func TestValidName(t *testing.T) {
	cases := map[string]bool{
		"x":      true,
		"_x1":    true,
		"PATH":   true,
		"":       false,
		"1x":     false,
		"a-b":    false,
		"a b":    false,
		"name$":  false,
		"UNDER_": true,
	}

	for name, expected := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, expected, ValidName(name))
		})
	}
}

func TestParseAssignment(t *testing.T) {
	cases := []struct {
		in    string
		name  string
		value string
		ok    bool
	}{
		{"x=5", "x", "5", true},
		{"x=", "x", "", true},
		{"x=a=b", "x", "a=b", true},
		{"=5", "", "", false},
		{"x", "", "", false},
		{"1x=5", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			name, value, ok := ParseAssignment(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.value, value)
		})
	}
}
