package loader

import (
	"strings"
)

const csvHeader = "id,type,kelurahan,priority,vuln_synth,MMB,hibah_100pct,hibah_prop,EMI_raw,cicilan_aman,sens_10,sens_25,sens_50"

// csvDoc joins the header and the given rows into a document.
func csvDoc(rows ...string) string {
	return strings.Join(append([]string{csvHeader}, rows...), "\n") + "\n"
}

var sampleRows = []string{
	"HH-1,household,Pancuran Gerobak,Prioritas Hibah,0.812,2450000,5000000,2500000,350000,300000,Bahaya,Bahaya,Bahaya",
	"UM-2,business,Aek Habil,Prioritas,0.421,1800000,4000000,1000000,250000,260000,Aman,Bahaya,Bahaya",
	"HH-3,household,Aek Habil,Normal,0.3,1200000,0,0,100000,150000,Aman,Aman,Bahaya",
}
