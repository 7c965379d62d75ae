package silver

import (
	"bytes"
	"context"
	"io"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/parquet-go/parquet-go"

	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/storage"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// ArtifactName формирует имя артефакта из имени входного объекта:
// первый токен базового имени до подчеркивания, фиксированный суффикс
// и отметка времени прогона.
// manifest_2024_w3.csv → manifest_enriched_20240115093000.parquet
func ArtifactName(inputObject string, ts time.Time) string {
	base := path.Base(inputObject)
	base = strings.TrimSuffix(base, path.Ext(base))
	token := strings.SplitN(base, "_", 2)[0]

	return token + "_enriched_" + ts.Format("20060102150405") + ".parquet"
}

// ArtifactWriter записывает обогащенный батч в объектное хранилище
// в формате parquet со сжатием snappy
type ArtifactWriter struct {
	store  storage.BlobStore
	logger *utils.PipelineLogger
}

// NewArtifactWriter создает новый экземпляр ArtifactWriter
func NewArtifactWriter(store storage.BlobStore, logger *utils.PipelineLogger) *ArtifactWriter {
	return &ArtifactWriter{
		store:  store,
		logger: logger,
	}
}

// BuildRows переводит финальный дата-фрейм в строки артефакта.
// Нечитаемое количество единиц записывается как 0
func BuildRows(df dataframe.DataFrame, logger *utils.PipelineLogger) []models.EnrichedShipment {
	n := df.Nrow()
	if n == 0 {
		return nil
	}

	orderNo := df.Col("Order_No").Records()
	sender := df.Col("Sender").Records()
	model := df.Col("Model").Records()
	units := df.Col("Units").Records()
	cbm := df.Col("CBM").Float()
	weight := df.Col("Weight").Float()
	delivery := df.Col("DeliveryDate").Records()
	loadPort := df.Col("Load_Port").Records()
	dischargePort := df.Col("Discharge_Port").Records()
	segment := df.Col("Segment").Records()
	resultCBM := df.Col("Result_CBM").Float()
	trade := df.Col("Trade").Records()

	rows := make([]models.EnrichedShipment, n)
	badUnits := 0
	for i := 0; i < n; i++ {
		u, ok := parseUnits(units[i])
		if !ok {
			badUnits++
		}

		rows[i] = models.EnrichedShipment{
			OrderNo:       orderNo[i],
			Sender:        sender[i],
			Model:         model[i],
			Units:         u,
			CBM:           finite(cbm[i]),
			Weight:        finite(weight[i]),
			DeliveryDate:  delivery[i],
			LoadPort:      loadPort[i],
			DischargePort: dischargePort[i],
			Segment:       segment[i],
			ResultCBM:     finite(resultCBM[i]),
			Trade:         trade[i],
		}
	}

	if badUnits > 0 {
		logger.Debug("Количество единиц нечитаемо для %d строк артефакта, записано 0", badUnits)
	}

	return rows
}

// parseUnits разбирает количество единиц: сначала как целое,
// затем как дробное с усечением
func parseUnits(value string) (int64, bool) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(f) {
		return int64(f), true
	}

	return 0, false
}

// finite заменяет NaN на ноль: в артефакте числовые метрики всегда заполнены
func finite(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Write записывает строки артефакта в объектное хранилище.
// Сначала заполняется временный объект, затем он копируется в целевой
// и удаляется — частично записанный артефакт не виден под целевым именем
func (w *ArtifactWriter) Write(ctx context.Context, object string, rows []models.EnrichedShipment) error {
	startTime := time.Now()

	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows, parquet.Compression(&parquet.Snappy)); err != nil {
		return &models.ExternalIOError{Op: "кодирование parquet", Object: object, Err: err}
	}

	tmpObject := object + ".tmp"
	if err := w.writeObject(ctx, tmpObject, buf.Bytes()); err != nil {
		return err
	}

	if err := w.store.Copy(ctx, tmpObject, object); err != nil {
		return err
	}

	if err := w.store.Delete(ctx, tmpObject); err != nil {
		w.logger.Error("Не удалось удалить временный объект %s: %v", tmpObject, err)
	}

	w.logger.Info("Артефакт записан: %s, строк %d, байт %d. Длительность: %v",
		object, len(rows), buf.Len(), time.Since(startTime))

	return nil
}

func (w *ArtifactWriter) writeObject(ctx context.Context, object string, data []byte) error {
	wc, err := w.store.Create(ctx, object)
	if err != nil {
		return err
	}

	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		wc.Close()
		return &models.ExternalIOError{Op: "запись", Object: object, Err: err}
	}

	if err := wc.Close(); err != nil {
		return &models.ExternalIOError{Op: "запись", Object: object, Err: err}
	}

	return nil
}
