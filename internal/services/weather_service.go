package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"krishak/internal/apperror"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// CurrentConditions is the weather right now. Temperatures are Celsius, wind is km/h.
type CurrentConditions struct {
	Temp          int     `json:"temp"`
	FeelsLike     int     `json:"feelsLike"`
	Condition     string  `json:"condition"`
	Description   string  `json:"description"`
	ConditionCode int     `json:"conditionCode"`
	Humidity      int     `json:"humidity"`
	WindSpeed     int     `json:"windSpeed"`
	Pressure      int     `json:"pressure"`
	Visibility    float64 `json:"visibility"` // km
	Precipitation float64 `json:"precipitation"`
}

// DailyForecast aggregates the 3-hour forecast slots of one local day.
type DailyForecast struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Day       string `json:"day"`  // Today, Tomorrow or a short weekday
	MaxTemp   int    `json:"maxTemp"`
	MinTemp   int    `json:"minTemp"`
	Condition string `json:"condition"`
	Humidity  int    `json:"humidity"`
	WindSpeed int    `json:"windSpeed"`
}

// HourlyForecast is a single 3-hour forecast slot.
type HourlyForecast struct {
	Time              time.Time `json:"time"`
	Temp              int       `json:"temp"`
	FeelsLike         int       `json:"feelsLike"`
	Condition         string    `json:"condition"`
	Description       string    `json:"description"`
	PrecipProbability int       `json:"precipProbability"`
	Humidity          int       `json:"humidity"`
	WindSpeed         int       `json:"windSpeed"`
}

// WeatherReport is the current weather and forecast of a location.
type WeatherReport struct {
	Location string            `json:"location"`
	Current  CurrentConditions `json:"current"`
	Forecast []DailyForecast   `json:"forecast"`
	Hourly   []HourlyForecast  `json:"hourly"`
}

// WeatherAdvisory is a report with the farming guidance derived from it.
type WeatherAdvisory struct {
	*WeatherReport
	Tips         []string `json:"tips"`
	SoilMoisture float64  `json:"soilMoisture"`
}

const maxHourlySlots = 24

// WeatherService fetches forecasts from an OpenWeatherMap compatible API.
type WeatherService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	now     func() time.Time
}

// NewWeatherService creates a new WeatherService.
func NewWeatherService(baseURL, apiKey string, timeout time.Duration) *WeatherService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WeatherService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// Advisory returns the forecast for location together with tips and the
// soil moisture index.
func (s *WeatherService) Advisory(ctx context.Context, location string) (*WeatherAdvisory, error) {
	report, err := s.Forecast(ctx, location)
	if err != nil {
		return nil, err
	}
	return &WeatherAdvisory{
		WeatherReport: report,
		Tips:          AgricultureTips(report),
		SoilMoisture:  SoilMoistureIndex(report),
	}, nil
}

// Forecast geocodes location and fetches its current weather and forecast.
func (s *WeatherService) Forecast(ctx context.Context, location string) (*WeatherReport, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, apperror.ValidationFailed(map[string]string{"location": "location is required"})
	}
	if s.apiKey == "" {
		return nil, apperror.New(apperror.Internal, "Weather service is not configured")
	}

	geo, err := s.get(ctx, "/geo/1.0/direct", url.Values{"q": {location}, "limit": {"1"}})
	if err != nil {
		return nil, err
	}
	place := geo.Get("0")
	if !place.Exists() {
		return nil, apperror.New(apperror.NotFound, "Location not found")
	}
	coords := url.Values{
		"lat":   {place.Get("lat").String()},
		"lon":   {place.Get("lon").String()},
		"units": {"metric"},
	}

	current, err := s.get(ctx, "/data/2.5/weather", coords)
	if err != nil {
		return nil, err
	}
	forecast, err := s.get(ctx, "/data/2.5/forecast", coords)
	if err != nil {
		return nil, err
	}

	zone := time.FixedZone("", int(forecast.Get("city.timezone").Int()))
	return &WeatherReport{
		Location: fmt.Sprintf("%s, %s", place.Get("name").String(), place.Get("country").String()),
		Current:  parseCurrent(current),
		Forecast: aggregateDaily(forecast.Get("list").Array(), zone, s.now()),
		Hourly:   parseHourly(forecast.Get("list").Array()),
	}, nil
}

// SuggestLocations returns up to five "City, Country" matches for input.
func (s *WeatherService) SuggestLocations(ctx context.Context, input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if len(input) < 2 || s.apiKey == "" {
		return []string{}, nil
	}
	res, err := s.get(ctx, "/geo/1.0/direct", url.Values{"q": {input}, "limit": {"5"}})
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, city := range res.Array() {
		out = append(out, fmt.Sprintf("%s, %s", city.Get("name").String(), city.Get("country").String()))
	}
	return out, nil
}

func (s *WeatherService) get(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	params.Set("appid", s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return gjson.Result{}, apperror.Wrap(apperror.Network, "Unable to reach the weather service", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, apperror.Wrap(apperror.Network, "Unable to read the weather response", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{"path": path, "status": resp.StatusCode}).Warn("Weather API request failed")
		if resp.StatusCode == http.StatusNotFound {
			return gjson.Result{}, apperror.New(apperror.NotFound, "Location not found")
		}
		return gjson.Result{}, apperror.Newf(apperror.Internal, "Weather service answered %d: %s", resp.StatusCode, gjson.GetBytes(body, "message").String())
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, apperror.New(apperror.Internal, "Weather service returned malformed data")
	}
	return gjson.ParseBytes(body), nil
}

func parseCurrent(r gjson.Result) CurrentConditions {
	return CurrentConditions{
		Temp:          roundHalfUp(r.Get("main.temp").Float()),
		FeelsLike:     roundHalfUp(r.Get("main.feels_like").Float()),
		Condition:     r.Get("weather.0.main").String(),
		Description:   r.Get("weather.0.description").String(),
		ConditionCode: int(r.Get("weather.0.id").Int()),
		Humidity:      int(r.Get("main.humidity").Int()),
		WindSpeed:     roundHalfUp(r.Get("wind.speed").Float() * 3.6),
		Pressure:      int(r.Get("main.pressure").Int()),
		Visibility:    r.Get("visibility").Float() / 1000,
		Precipitation: r.Get("rain.1h").Float(),
	}
}

func parseHourly(list []gjson.Result) []HourlyForecast {
	if len(list) > maxHourlySlots {
		list = list[:maxHourlySlots]
	}
	out := make([]HourlyForecast, 0, len(list))
	for _, item := range list {
		out = append(out, HourlyForecast{
			Time:              time.Unix(item.Get("dt").Int(), 0).UTC(),
			Temp:              roundHalfUp(item.Get("main.temp").Float()),
			FeelsLike:         roundHalfUp(item.Get("main.feels_like").Float()),
			Condition:         item.Get("weather.0.main").String(),
			Description:       item.Get("weather.0.description").String(),
			PrecipProbability: roundHalfUp(item.Get("pop").Float() * 100),
			Humidity:          int(item.Get("main.humidity").Int()),
			WindSpeed:         roundHalfUp(item.Get("wind.speed").Float() * 3.6),
		})
	}
	return out
}

type dayBucket struct {
	date       time.Time
	temps      []float64
	conditions []string
	humidity   []float64
	wind       []float64
}

// aggregateDaily groups forecast slots by local calendar day, keeping the
// order in which days first appear.
func aggregateDaily(list []gjson.Result, zone *time.Location, now time.Time) []DailyForecast {
	var order []string
	buckets := map[string]*dayBucket{}
	for _, item := range list {
		at := time.Unix(item.Get("dt").Int(), 0).In(zone)
		key := at.Format("2006-01-02")
		b, ok := buckets[key]
		if !ok {
			b = &dayBucket{date: at}
			buckets[key] = b
			order = append(order, key)
		}
		b.temps = append(b.temps, item.Get("main.temp").Float())
		b.conditions = append(b.conditions, item.Get("weather.0.main").String())
		b.humidity = append(b.humidity, item.Get("main.humidity").Float())
		b.wind = append(b.wind, item.Get("wind.speed").Float()*3.6)
	}

	today := now.In(zone).Format("2006-01-02")
	tomorrow := now.In(zone).AddDate(0, 0, 1).Format("2006-01-02")

	out := make([]DailyForecast, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		day := b.date.Format("Mon")
		switch key {
		case today:
			day = "Today"
		case tomorrow:
			day = "Tomorrow"
		}
		maxT, minT := b.temps[0], b.temps[0]
		for _, t := range b.temps[1:] {
			maxT = math.Max(maxT, t)
			minT = math.Min(minT, t)
		}
		out = append(out, DailyForecast{
			Date:      key,
			Day:       day,
			MaxTemp:   roundHalfUp(maxT),
			MinTemp:   roundHalfUp(minT),
			Condition: mostFrequent(b.conditions),
			Humidity:  roundHalfUp(average(b.humidity)),
			WindSpeed: roundHalfUp(average(b.wind)),
		})
	}
	return out
}

// mostFrequent returns the value seen most often. On a tie the value that
// reached the winning count first wins.
func mostFrequent(values []string) string {
	counts := map[string]int{}
	best, bestCount := "", 0
	for _, v := range values {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func isRainy(condition string) bool {
	c := strings.ToLower(condition)
	for _, marker := range []string{"rain", "shower", "drizzle", "thunder"} {
		if strings.Contains(c, marker) {
			return true
		}
	}
	return false
}

// AgricultureTips derives farming guidance from a report.
func AgricultureTips(r *WeatherReport) []string {
	var tips []string

	switch {
	case r.Current.Temp > 30:
		tips = append(tips,
			"Ensure adequate irrigation for crops due to high temperatures.",
			"Consider providing shade for sensitive seedlings.")
	case r.Current.Temp < 15:
		tips = append(tips,
			"Protect frost-sensitive crops with covers.",
			"Delay planting of warm-season crops until temperatures rise.")
	}

	rainyDays := 0
	for _, d := range r.Forecast {
		if isRainy(d.Condition) {
			rainyDays++
		}
	}
	switch {
	case rainyDays > 2:
		tips = append(tips,
			"Expected rainfall in coming days - delay fertilizer application.",
			"Ensure proper drainage in fields to prevent waterlogging.")
	case rainyDays == 0:
		tips = append(tips, "No rain expected soon - ensure adequate irrigation.")
	}

	switch {
	case r.Current.Humidity > 80:
		tips = append(tips,
			"High humidity levels increase risk of fungal diseases. Monitor crops closely.",
			"Ensure good air circulation around plants to reduce disease pressure.")
	case r.Current.Humidity < 40:
		tips = append(tips, "Low humidity may increase water loss. Consider more frequent irrigation.")
	}

	if r.Current.WindSpeed > 25 {
		tips = append(tips, "High winds expected - secure young plants and provide windbreaks if possible.")
	}

	return append(tips,
		"Monitor soil moisture regularly for optimal crop health.",
		"Consider mulching to conserve soil moisture and control weeds.")
}

// SoilMoistureIndex estimates soil moisture in [0, 1] from humidity, rain in
// the next three days and heat.
func SoilMoistureIndex(r *WeatherReport) float64 {
	index := float64(r.Current.Humidity) / 100

	days := r.Forecast
	if len(days) > 3 {
		days = days[:3]
	}
	for _, d := range days {
		if isRainy(d.Condition) {
			index += 0.1
		}
	}

	switch {
	case r.Current.Temp > 35:
		index -= 0.15
	case r.Current.Temp > 30:
		index -= 0.1
	}

	return math.Max(0, math.Min(index, 1))
}
