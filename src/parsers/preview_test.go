// backend/src/parsers/preview_test.go
package parsers

import "testing"

func confidenceFor(t *testing.T, matches []PreviewMatch, broker string) Confidence {
	t.Helper()
	for _, m := range matches {
		if m.Broker == broker {
			return m.Confidence
		}
	}
	t.Fatalf("broker %q missing from preview matches", broker)
	return ConfidenceNone
}

func TestPreviewDetectGrading(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
		broker   string
		want     Confidence
	}{
		{
			name:     "filename plus header is high",
			content:  "Fecha,Producto,ISIN,Número,Precio\n",
			filename: "degiro_transactions.csv",
			broker:   "degiro",
			want:     ConfidenceHigh,
		},
		{
			name:    "header alone is medium",
			content: "Fecha,Producto,ISIN,Número,Precio\n",
			broker:  "degiro",
			want:    ConfidenceMedium,
		},
		{
			name:     "filename alone is low",
			content:  "a,b,c\n",
			filename: "degiro.csv",
			broker:   "degiro",
			want:     ConfidenceLow,
		},
		{
			name:    "weak keyword alone is low",
			content: "Name,ISIN,Shares\n",
			broker:  "degiro",
			want:    ConfidenceLow,
		},
		{
			name:    "no signal is none",
			content: "col1,col2,col3\n",
			broker:  "degiro",
			want:    ConfidenceNone,
		},
		{
			name:    "ibkr header is medium",
			content: "TradeDate,Symbol,Quantity,TradePrice,IBCommission,TradeID\n",
			broker:  "ibkr",
			want:    ConfidenceMedium,
		},
		{
			name:    "pipe shape is medium for caixabank",
			content: "01/02/2024|01/02/2024|NOMINA ENERO|1.500,00|3.200,00\n",
			broker:  "caixabank",
			want:    ConfidenceMedium,
		},
		{
			name:     "pipe shape plus filename is high",
			content:  "01/02/2024|01/02/2024|NOMINA ENERO|1.500,00|3.200,00\n",
			filename: "movimientos_enero.csv",
			broker:   "caixabank",
			want:     ConfidenceHigh,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := PreviewDetect(tt.content, tt.filename)
			if got := confidenceFor(t, matches, tt.broker); got != tt.want {
				t.Errorf("confidence for %s = %s, want %s", tt.broker, got, tt.want)
			}
		})
	}
}

func TestPreviewDetectRanking(t *testing.T) {
	content := "TradeDate,Symbol,Quantity,TradePrice,IBCommission,TradeID\n"
	matches := PreviewDetect(content, "flex_report.csv")

	if len(matches) == 0 {
		t.Fatal("no matches returned")
	}
	if matches[0].Broker != "ibkr" {
		t.Errorf("best match = %s, want ibkr", matches[0].Broker)
	}
	if matches[0].Confidence != ConfidenceHigh {
		t.Errorf("best confidence = %s, want high", matches[0].Confidence)
	}
	for i := 1; i < len(matches); i++ {
		if confidenceRank[matches[i-1].Confidence] < confidenceRank[matches[i].Confidence] {
			t.Errorf("matches not sorted best-first at index %d: %v", i, matches)
		}
	}
}
