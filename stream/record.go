package stream

// RecordKind says whether a record in a capture artifact is a real test record or the
// synchronization placeholder that follows it.
type RecordKind int

const (
	Genuine RecordKind = iota
	Dummy
)

func (k RecordKind) String() string {
	if k == Dummy {
		return "dummy"
	}
	return "genuine"
}

// Record is a single framed record together with its position in the artifact.
type Record struct {
	Ordinal int
	Kind    RecordKind
	Data    []byte
}

// tagger assigns kinds to records in artifact order. Every genuine record is followed by exactly
// one dummy, so the kinds strictly alternate starting with Genuine.
type tagger struct {
	next int
}

func (t *tagger) tag(data []byte) Record {
	r := Record{Ordinal: t.next, Kind: Genuine, Data: data}
	if t.next%2 == 1 {
		r.Kind = Dummy
	}
	t.next++
	return r
}

// Scanner is implemented by the request and response scanners.
type Scanner interface {
	Scan() bool
	Record() Record
	Err() error
}

// GenuineOnly drains a scanner and keeps only the payloads of genuine records, in order.
func GenuineOnly(s Scanner) ([][]byte, error) {
	var out [][]byte
	for s.Scan() {
		if r := s.Record(); r.Kind == Genuine {
			out = append(out, r.Data)
		}
	}
	return out, s.Err()
}
