package diff

// mergeSegments joins adjacent segments of the same type and drops empty ones.
// Within a changed region deletions are moved ahead of additions so a
// replacement reads "old then new".
func mergeSegments(in []Segment) []Segment {
	var out []Segment
	var dels, adds string

	flush := func() {
		if dels != "" {
			out = append(out, Segment{Type: Deletion, Text: dels})
		}
		if adds != "" {
			out = append(out, Segment{Type: Addition, Text: adds})
		}
		dels, adds = "", ""
	}

	for _, seg := range in {
		if seg.Text == "" {
			continue
		}
		switch seg.Type {
		case Deletion:
			dels += seg.Text
		case Addition:
			adds += seg.Text
		default:
			flush()
			if n := len(out); n > 0 && out[n-1].Type == Context {
				out[n-1].Text += seg.Text
				continue
			}
			out = append(out, seg)
		}
	}
	flush()

	return out
}

// OldText reassembles the original name from the segments.
func (r Result) OldText() string {
	return r.join(Deletion)
}

// NewText reassembles the proposed name from the segments.
func (r Result) NewText() string {
	return r.join(Addition)
}

func (r Result) join(keep SegmentType) string {
	var s string
	for _, seg := range r.Segments {
		if seg.Type == Context || seg.Type == keep {
			s += seg.Text
		}
	}
	return s
}
