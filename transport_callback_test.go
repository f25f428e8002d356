package sockjs

import "testing"

func TestRequireCallback(t *testing.T) {
	cases := []struct {
		query   string
		wantErr *AppError
	}{
		{"", errMissingCallback},
		{"callback", nil},
		{"my.nested.callback", nil},
		{"123", nil},
		{".cb", nil},
		{"<script>", errInvalidCallback},
		{"has space", errInvalidCallback},
		{"cb$", errInvalidCallback},
	}
	for _, c := range cases {
		_, err := requireCallback(c.query)
		if c.wantErr == nil && err != nil {
			t.Errorf("requireCallback(%q) = %v, want nil", c.query, err)
		}
		if c.wantErr != nil && err != c.wantErr {
			t.Errorf("requireCallback(%q) = %v, want %v", c.query, err, c.wantErr)
		}
	}
}
