package submitpolicy

import (
	"reflect"
	"testing"
)

func TestNormalizeExtensions_ExpandsAliases(t *testing.T) {
	got := NormalizeExtensions("jpg, .PNG ,pdf")
	want := []string{".jpg", ".png", ".pdf", ".jpeg", ".jpe", ".jfif", ".PNG", ".PDF"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeExtensions = %v, want %v", got, want)
	}
}

func TestNormalizeExtensions_Blank(t *testing.T) {
	for _, raw := range []string{"", "   ", ", ,"} {
		if got := NormalizeExtensions(raw); got != nil {
			t.Errorf("NormalizeExtensions(%q) = %v, want nil", raw, got)
		}
	}
}

func TestNormalizeExtensionList_Idempotent(t *testing.T) {
	once := NormalizeExtensionList([]string{"jpg", "png"})
	twice := NormalizeExtensionList(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second normalization changed the set: %v vs %v", once, twice)
	}
}

func TestNormalizeExtensionList_DedupesAndPrefixes(t *testing.T) {
	got := NormalizeExtensionList([]string{"pdf", ".pdf", "PDF", ""})
	want := []string{".pdf", ".PDF"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeExtensionList = %v, want %v", got, want)
	}
}

func TestNormalizeExtensionList_LegacyCommaJoinedToken(t *testing.T) {
	got := NormalizeExtensionList([]string{"pdf,doc"})
	want := []string{".pdf", ".doc", ".PDF", ".DOC"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeExtensionList = %v, want %v", got, want)
	}
}

func TestFileExtension(t *testing.T) {
	cases := map[string]string{
		"report.PDF":      ".pdf",
		"photo.JPEG":      ".jpeg",
		"archive.tar.gz":  ".gz",
		"noextension":     "",
		"trailing-dot.":   ".",
		"dir/nested.docx": ".docx",
	}
	for name, want := range cases {
		if got := fileExtension(name); got != want {
			t.Errorf("fileExtension(%q) = %q, want %q", name, got, want)
		}
	}
}
