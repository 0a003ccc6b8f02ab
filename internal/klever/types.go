package klever

// QueryRequest is the body of a read-only /vm/query call
type QueryRequest struct {
	ScAddress string   `json:"scAddress"`
	FuncName  string   `json:"funcName"`
	Arguments []string `json:"arguments"` // hex-encoded
}

// QueryData holds the raw return values of a contract view
type QueryData struct {
	ReturnData    []string `json:"returnData"` // base64-encoded
	ReturnCode    string   `json:"returnCode"`
	ReturnMessage string   `json:"returnMessage"`
}

// QueryResponse is the node envelope around a contract query
type QueryResponse struct {
	Data *struct {
		Data *QueryData `json:"data"`
	} `json:"data"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Asset is the subset of node asset metadata the pricer needs
type Asset struct {
	AssetID   string `json:"assetId"`
	Name      string `json:"name"`
	Ticker    string `json:"ticker"`
	Precision int    `json:"precision"`
}

// AssetResponse is the node envelope around an asset lookup
type AssetResponse struct {
	Data *struct {
		Asset *Asset `json:"asset"`
	} `json:"data"`
	Error string `json:"error"`
	Code  string `json:"code"`
}
