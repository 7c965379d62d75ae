package models

// EnrichedShipment представляет одну строку обогащенного манифеста (silver-слой).
// Инвариант: CBM, Weight и DeliveryDate всегда заполнены — цепочки резервных
// значений гарантируют терминальное значение даже при полном отсутствии исходных данных.
type EnrichedShipment struct {
	OrderNo       string  `parquet:"Order_No" dataframe:"Order_No,string"`
	Sender        string  `parquet:"Sender" dataframe:"Sender,string"`
	Model         string  `parquet:"Model" dataframe:"Model,string"`
	Units         int64   `parquet:"Units" dataframe:"Units,int"`
	CBM           float64 `parquet:"CBM" dataframe:"CBM,float"`
	Weight        float64 `parquet:"Weight" dataframe:"Weight,float"`
	DeliveryDate  string  `parquet:"DeliveryDate" dataframe:"DeliveryDate,string"`
	LoadPort      string  `parquet:"Load_Port" dataframe:"Load_Port,string"`
	DischargePort string  `parquet:"Discharge_Port" dataframe:"Discharge_Port,string"`
	Segment       string  `parquet:"Segment" dataframe:"Segment,string"`
	ResultCBM     float64 `parquet:"Result_CBM" dataframe:"Result_CBM,float"`
	Trade         string  `parquet:"Trade" dataframe:"Trade,string"`
}

// PortSegmentSummary представляет одну строку сводной таблицы gold-слоя:
// агрегат по паре (порт отгрузки, сегмент груза)
type PortSegmentSummary struct {
	LoadPort      string  `json:"load_port"`
	Segment       string  `json:"segment"`
	TotalUnits    int64   `json:"total_units"`
	TotalCBM      float64 `json:"total_cbm"`
	ShipmentCount int     `json:"shipment_count"`
}

// ModelDimension представляет строку справочника габаритов модели.
// Ключ — пара (Sender, Model); значения используются как второй ярус
// резервных значений объема и веса
type ModelDimension struct {
	Sender    string   `csv:"Sender"`
	Model     string   `csv:"Model"`
	ApproxCBM *float64 `csv:"Approx_CBM"`
	WeightKg  *float64 `csv:"Weight_kg"`
}

// ModelAverage представляет строку справочника статистических средних модели.
// Ключ — Model; значения используются как третий ярус резервных значений
type ModelAverage struct {
	Model     string   `csv:"Model"`
	AvgCBM    *float64 `csv:"Avg_CBM"`
	AvgWeight *float64 `csv:"Avg_Weight"`
}

// PortContinent представляет строку справочника портов: код порта → континент
type PortContinent struct {
	Port      string `csv:"Port" dataframe:"Port,string"`
	Continent string `csv:"Continent" dataframe:"Continent,string"`
}
