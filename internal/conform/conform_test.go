package conform

import (
	"errors"
	"strings"
	"testing"

	"github.com/muzzletov/mendxml"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"self closing", `<sheet id="s" width="16"/>`, false},
		{"escaped text", `<a>1 &lt; 2 &amp; 3</a>`, false},
		{"raw ampersand", `<a>1 & 2</a>`, true},
		{"raw less than", `<a>1 < 2</a>`, true},
		{"unclosed", `<a><b></a>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestCheckEmpty(t *testing.T) {
	if err := Check([]byte("  ")); !errors.Is(err, ErrNoRoot) {
		t.Fatalf("Check() error = %v, want %v", err, ErrNoRoot)
	}
}

func TestVerifyNormalizedOutput(t *testing.T) {
	input := `<?xml version="1.0"?>
<items>
	<!-- tools -->
	<item id="pick" name="Pick & Shovel" cost='5'>
		<action>if hp < 10 && mp > 2</action>
		<frame x="0" y="0"/>
	</item>
	<item id="rope"/>
</items>`

	root, err := mendxml.ParseString(input)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	mendxml.Normalize(root)

	if err := Verify(root, []byte(mendxml.Render(root))); err != nil {
		t.Fatalf("Verify() error = %v\n%s", err, mendxml.Render(root))
	}
}

func TestVerifyQuotedAttributes(t *testing.T) {
	root, err := mendxml.ParseString(`<a say='he said "hi"' other="it's"><b q='5" < 6"'/></a>`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	both := mendxml.NewNode("c")
	both.SetAttr("v", `it's "x" & more`)
	root.Children = append(root.Children, both)

	mendxml.Normalize(root)
	output := []byte(mendxml.Render(root))

	if err := Verify(root, output); err != nil {
		t.Fatalf("Verify() error = %v\n%s", err, output)
	}

	doc, err := Read(output)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got := doc.SelectAttrValue("say", ""); got != `he said "hi"` {
		t.Errorf("say = %q", got)
	}
	if got := doc.FindElement("c").SelectAttrValue("v", ""); got != `it's "x" & more` {
		t.Errorf("v = %q", got)
	}
}

func TestVerifyDetectsMismatch(t *testing.T) {
	root, err := mendxml.ParseString(`<a x="1" y="2"><b/></a>`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"name", `<z x="1" y="2"><b/></z>`, "element"},
		{"attribute order", `<a y="2" x="1"><b/></a>`, "attributes"},
		{"children", `<a x="1" y="2"><b/><b/></a>`, "children"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(root, []byte(tt.output))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Verify() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
