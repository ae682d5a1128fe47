package record

import (
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"
)

type artifactRow struct {
	V        string  `csv:"v_segment"`
	J        string  `csv:"j_segment"`
	Sequence string  `csv:"sequence"`
	Count    int64   `csv:"count"`
	Freq     float64 `csv:"freq"`
}

type artifactRowWithSubject struct {
	V        string  `csv:"v_segment"`
	J        string  `csv:"j_segment"`
	Sequence string  `csv:"sequence"`
	Count    int64   `csv:"count"`
	Freq     float64 `csv:"freq"`
	Subject  string  `csv:"subject"`
}

// WriteTSV writes records in the CANONICAL layout. The subject column is
// only written when withSubject is set.
func WriteTSV(w io.Writer, records []Record, withSubject bool) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	out := gocsv.NewSafeCSVWriter(cw)

	var err error
	if withSubject {
		rows := make([]*artifactRowWithSubject, 0, len(records))
		for _, r := range records {
			rows = append(rows, &artifactRowWithSubject{r.V, r.J, r.Sequence, r.Count, r.Freq, r.Subject})
		}
		err = gocsv.MarshalCSV(&rows, out)
	} else {
		rows := make([]*artifactRow, 0, len(records))
		for _, r := range records {
			rows = append(rows, &artifactRow{r.V, r.J, r.Sequence, r.Count, r.Freq})
		}
		err = gocsv.MarshalCSV(&rows, out)
	}
	if err != nil {
		return err
	}

	out.Flush()
	return out.Error()
}
