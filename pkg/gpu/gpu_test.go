package gpu

import "testing"

func TestParse_WellFormed(t *testing.T) {
	out := "0, RTX A6000\n1, NVIDIA A100-SXM4-80GB\n"

	got := parse(out)

	if len(got) != 2 {
		t.Fatalf("expected 2 gpus, got %d: %v", len(got), got)
	}
	if got[0].ID != 0 || got[0].Model != "RTX A6000" {
		t.Fatalf("unexpected gpu[0]: %+v", got[0])
	}
	if got[1].ID != 1 || got[1].Model != "NVIDIA A100-SXM4-80GB" {
		t.Fatalf("unexpected gpu[1]: %+v", got[1])
	}
}

func TestParse_BlankLinesSkipped(t *testing.T) {
	got := parse("0, RTX A6000\n\n\n1, A100\n")
	if len(got) != 2 {
		t.Fatalf("expected 2 gpus, got %d", len(got))
	}
}

func TestParse_MissingModelDefaultsUnknown(t *testing.T) {
	got := parse("0\n")
	if len(got) != 1 || got[0].Model != "Unknown" {
		t.Fatalf("expected model=Unknown, got %+v", got)
	}
}

func TestParse_MalformedIndexSkipped(t *testing.T) {
	got := parse("not-a-number, RTX A6000\n1, A100\n")
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected only the well-formed line, got %+v", got)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	if got := parse(""); len(got) != 0 {
		t.Fatalf("expected no gpus for empty input, got %v", got)
	}
}
