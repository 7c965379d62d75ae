package gold

import (
	"testing"

	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

func testShipment(port, segment string, units int64, resultCBM float64) models.EnrichedShipment {
	return models.EnrichedShipment{
		OrderNo:       "ord",
		Sender:        "ABC",
		Model:         "X1",
		Units:         units,
		LoadPort:      port,
		DischargePort: "Rotterdam",
		Segment:       segment,
		ResultCBM:     resultCBM,
	}
}

func TestAggregateGroupsByPortAndSegment(t *testing.T) {
	agg := NewAggregator(utils.NewDiscardLogger())

	rows := []models.EnrichedShipment{
		testShipment("Shanghai", "FCL", 10, 20.5),
		testShipment("Shanghai", "FCL", 4, 5.25),
		testShipment("Shanghai", "LCL", 2, 1.5),
		testShipment("Ningbo", "FCL", 7, 14.0),
	}

	summaries, err := agg.Aggregate(rows)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("ожидалось 3 группы, получено %d", len(summaries))
	}

	// Группы отсортированы по (порт, сегмент)
	expected := []models.PortSegmentSummary{
		{LoadPort: "Ningbo", Segment: "FCL", TotalUnits: 7, TotalCBM: 14.0, ShipmentCount: 1},
		{LoadPort: "Shanghai", Segment: "FCL", TotalUnits: 14, TotalCBM: 25.75, ShipmentCount: 2},
		{LoadPort: "Shanghai", Segment: "LCL", TotalUnits: 2, TotalCBM: 1.5, ShipmentCount: 1},
	}
	for i, want := range expected {
		got := summaries[i]
		if got != want {
			t.Errorf("группа %d: ожидалось %+v, получено %+v", i, want, got)
		}
	}
}

func TestAggregateConservesUnits(t *testing.T) {
	agg := NewAggregator(utils.NewDiscardLogger())

	rows := []models.EnrichedShipment{
		testShipment("Shanghai", "FCL", 3, 1.0),
		testShipment("Qingdao", "LCL", 5, 2.0),
		testShipment("Shanghai", "FCL", 8, 3.0),
		testShipment("Qingdao", "FCL", 1, 4.0),
	}

	summaries, err := agg.Aggregate(rows)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	var rowUnits, groupUnits int64
	var shipments int
	for _, r := range rows {
		rowUnits += r.Units
	}
	for _, s := range summaries {
		groupUnits += s.TotalUnits
		shipments += s.ShipmentCount
	}

	if groupUnits != rowUnits {
		t.Errorf("сумма Units по группам %d не совпадает с суммой по строкам %d", groupUnits, rowUnits)
	}
	if shipments != len(rows) {
		t.Errorf("сумма ShipmentCount %d не совпадает с числом строк %d", shipments, len(rows))
	}
}

func TestAggregateRoundsTotalCBM(t *testing.T) {
	agg := NewAggregator(utils.NewDiscardLogger())

	rows := []models.EnrichedShipment{
		testShipment("Shanghai", "FCL", 1, 1.111),
		testShipment("Shanghai", "FCL", 1, 2.222),
	}

	summaries, err := agg.Aggregate(rows)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("ожидалась 1 группа, получено %d", len(summaries))
	}
	if summaries[0].TotalCBM != 3.33 {
		t.Errorf("TotalCBM: ожидалось 3.33, получено %v", summaries[0].TotalCBM)
	}
}

func TestAggregateEmpty(t *testing.T) {
	agg := NewAggregator(utils.NewDiscardLogger())

	summaries, err := agg.Aggregate(nil)
	if err != nil {
		t.Fatalf("пустой вход не должен быть ошибкой: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("ожидался пустой результат, получено %d групп", len(summaries))
	}
}
