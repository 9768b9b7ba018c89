package api

import "net/http"

func (s *Server) weatherForecast(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.forecast.Forecast(s.forecastDays))
}
