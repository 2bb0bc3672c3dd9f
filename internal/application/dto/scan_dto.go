package dto

// ScanState estado terminal de un escaneo.
type ScanState string

const (
	ScanApplied  ScanState = "Applied"  // cantidad descontada, quedan unidades
	ScanDepleted ScanState = "Depleted" // cantidad llegó a 0, registro eliminado
	ScanRejected ScanState = "Rejected" // stock insuficiente, nada se modificó
	ScanNotFound ScanState = "NotFound"
	ScanConflict ScanState = "Conflict" // código duplicado en varios registros
	ScanInvalid  ScanState = "Invalid"  // entrada mal formada
	ScanFailed   ScanState = "Failed"   // almacén no disponible, timeout o CAS agotado
)

// ScanRequest body para POST /api/scans. Quantity nil equivale a 1.
type ScanRequest struct {
	Barcode  string `json:"barcode"`
	Quantity *int   `json:"quantity,omitempty"`
}

// ScanOutcome resultado reportado de un escaneo, exista o no error.
type ScanOutcome struct {
	State     ScanState `json:"state"`
	Barcode   string    `json:"barcode"`
	ItemID    string    `json:"item_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	Requested int       `json:"requested"`
	Previous  int       `json:"previous"`
	Remaining int       `json:"remaining"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}
