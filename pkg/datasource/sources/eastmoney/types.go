package eastmoney

// klineResponse is the raw payload of the kline endpoint. Prices arrive as
// comma-joined strings, one per trading day.
type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// quoteResponse is the raw payload of the realtime snapshot endpoint.
// Price-like fields are scaled integers (x100).
type quoteResponse struct {
	Data *struct {
		Last      float64 `json:"f43"`
		High      float64 `json:"f44"`
		Low       float64 `json:"f45"`
		Open      float64 `json:"f46"`
		Volume    float64 `json:"f47"`
		Amount    float64 `json:"f48"`
		Code      string  `json:"f57"`
		Name      string  `json:"f58"`
		PrevClose float64 `json:"f60"`
	} `json:"data"`
}

// chipResponse is the raw payload of the chip distribution endpoint.
type chipResponse struct {
	Data *struct {
		Date          string  `json:"date"`
		AvgCost       float64 `json:"avgCost"`
		Concentration float64 `json:"concentration90"`
		ProfitRatio   float64 `json:"profitRatio"`
		Support       float64 `json:"support"`
		Resistance    float64 `json:"resistance"`
	} `json:"data"`
}
