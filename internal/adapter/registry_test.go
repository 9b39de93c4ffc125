package adapter

import "testing"

func TestClassifyPriorityOrder(t *testing.T) {
	cases := []struct {
		resource string
		want     Kind
	}{
		{"fdsn://service/fdsnws/event/1/query", KindFDSN},
		{"wss://stream.example.com/socket", KindWebSocket},
		{"https://earthquake.usgs.gov/feed.geojson", KindHTTP},
		{"twitter://friends@quakebot", KindTwitter},
		{"not a uri at all", KindUnknown},
	}
	for _, c := range cases {
		if got := Classify(c.resource, nil); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.resource, got, c.want)
		}
	}
}

func TestSniffCSVDetectsDelimiter(t *testing.T) {
	if !sniffCSV([]byte("lat,lon,mag,time\n1,2,3,4")) {
		t.Fatal("expected comma-delimited sample to be detected as CSV")
	}
	if sniffCSV([]byte("just some prose with no delimiters")) {
		t.Fatal("expected prose to not be sniffed as CSV")
	}
}

func TestRegistryBuildUnknownResourceFails(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Build("not a uri", nil, nil); err == nil {
		t.Fatal("expected an error for an unclassifiable resource")
	}
}
