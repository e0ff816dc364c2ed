package domain

import (
	"fmt"
	"time"
)

// FetchWindow é o intervalo fechado de datas a buscar para uma conta.
type FetchWindow struct {
	StartDate time.Time
	EndDate   time.Time
}

// NewFetchWindow valida e cria uma janela de busca.
func NewFetchWindow(start, end time.Time) (FetchWindow, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if start.After(end) {
		return FetchWindow{}, fmt.Errorf("janela inválida: data inicial %s posterior à final %s",
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return FetchWindow{StartDate: start, EndDate: end}, nil
}

// YesterdayWindow é a janela do modo diário: {ontem, ontem}.
func YesterdayWindow(now time.Time) FetchWindow {
	y := truncateDay(now.AddDate(0, 0, -1))
	return FetchWindow{StartDate: y, EndDate: y}
}

// ChunkByDay quebra a janela em sub-janelas de um único dia, respeitando o
// limite de dias por requisição da API. A união dos chunks cobre exatamente
// a janela original, sem lacunas nem sobreposições.
func (w FetchWindow) ChunkByDay() []FetchWindow {
	chunks := make([]FetchWindow, 0, w.Days())
	for d := w.StartDate; !d.After(w.EndDate); d = d.AddDate(0, 0, 1) {
		chunks = append(chunks, FetchWindow{StartDate: d, EndDate: d})
	}
	return chunks
}

// Days retorna a quantidade de dias cobertos pela janela (inclusiva).
func (w FetchWindow) Days() int {
	return int(w.EndDate.Sub(w.StartDate).Hours()/24) + 1
}

// Contains verifica se a data (formato YYYY-MM-DD) está dentro da janela.
func (w FetchWindow) Contains(date string) bool {
	return date >= w.StartDate.Format(time.DateOnly) && date <= w.EndDate.Format(time.DateOnly)
}

func (w FetchWindow) String() string {
	return fmt.Sprintf("%s a %s", w.StartDate.Format(time.DateOnly), w.EndDate.Format(time.DateOnly))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
