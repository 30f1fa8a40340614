package textutil_test

import (
	"reflect"
	"testing"

	"docket/internal/textutil"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want textutil.Script
	}{
		{"plain ascii", "GyanSys_SoW_2024.pdf", textutil.ScriptASCII},
		{"ascii punctuation", "report (final) v2.pdf", textutil.ScriptASCII},
		{"empty", "", textutil.ScriptASCII},
		{"japanese", "【御見積書】_システム運用サポート.pdf", textutil.ScriptNonASCII},
		{"mixed", "invoice_請求書.pdf", textutil.ScriptNonASCII},
		{"control char", "bad\tname.pdf", textutil.ScriptNonASCII},
		{"accented latin", "café.pdf", textutil.ScriptNonASCII},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textutil.Classify(tt.in); got != tt.want {
				t.Fatalf("Classify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a/b:c*d", "a-b-c-d"},
		{"what?.pdf", "what.pdf"},
		{"  spaced.pdf  ", "spaced.pdf"},
		{"", ""},
		{"<angle>|pipe", "anglepipe"},
	}
	for _, tt := range tests {
		if got := textutil.SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GyanSys K.K.", "GyanSys_K_K"},
		{"Tata Consultancy Services", "Tata_Consultancy_Services"},
		{"", "unknown"},
		{"___", "unknown"},
		{"株式会社", "unknown"},
		{"ACME-2024", "ACME-2024"},
	}
	for _, tt := range tests {
		if got := textutil.SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitForTranslation(t *testing.T) {
	got := textutil.SplitForTranslation("【御見積書】_システム運用サポート")
	want := []string{"御見積書", "システム運用サポート"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitForTranslation = %v, want %v", got, want)
	}
}

func TestSplitForTranslationDropsShortFragments(t *testing.T) {
	got := textutil.SplitForTranslation("a_契約書-b 2024")
	want := []string{"契約書", "2024"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitForTranslation = %v, want %v", got, want)
	}
}

func TestCleanTranslated(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Quotation"`, "Quotation"},
		{"System Operation Support", "System_Operation_Support"},
		{"  Invoice!!  ", "Invoice"},
		{"multi   space -- dash", "multi_space_dash"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := textutil.CleanTranslated(tt.in); got != tt.want {
			t.Errorf("CleanTranslated(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
