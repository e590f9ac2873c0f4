package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"panchang-backend/internal/domain"
	httpinfra "panchang-backend/internal/infra/http"
	assistantuc "panchang-backend/internal/usecase/assistant"
	panchanguc "panchang-backend/internal/usecase/panchang"
	scheduleuc "panchang-backend/internal/usecase/schedule"
)

// api holds the request handlers of the mobile-client REST surface.
type api struct {
	log       zerolog.Logger
	identity  domain.Identity
	users     domain.UserRepo
	feedback  domain.FeedbackRepo
	locator   domain.Locator
	panchang  *panchanguc.Service
	assistant *assistantuc.Service
	schedule  *scheduleuc.Service
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type sessionResponse struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a *api) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	session, err := a.identity.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			httpinfra.WriteError(w, http.StatusBadRequest, err)
			return
		}
		a.writeDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (a *api) signIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	session, err := a.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func (a *api) signOut(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := a.identity.SignOut(r.Context(), token); err != nil {
		a.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type userResponse struct {
	ID             int64           `json:"id"`
	Email          string          `json:"email,omitempty"`
	DisplayName    string          `json:"display_name"`
	Locale         string          `json:"locale"`
	Timezone       string          `json:"timezone,omitempty"`
	Location       domain.Location `json:"location"`
	BirthDate      string          `json:"birth_date,omitempty"`
	BirthTime      string          `json:"birth_time,omitempty"`
	BirthPlace     string          `json:"birth_place,omitempty"`
	Plan           string          `json:"plan"`
	DailyTime      string          `json:"daily_time,omitempty"`
	TelegramLinked bool            `json:"telegram_linked"`
	AsksToday      int             `json:"asks_today"`
}

func (a *api) getProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

type updateProfileRequest struct {
	DisplayName   *string          `json:"display_name"`
	Locale        *string          `json:"locale"`
	Timezone      *string          `json:"timezone"`
	LocationQuery *string          `json:"location_query"`
	Location      *domain.Location `json:"location"`
	BirthDate     *string          `json:"birth_date"`
	BirthTime     *string          `json:"birth_time"`
	BirthPlace    *string          `json:"birth_place"`
}

func (a *api) updateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !a.readJSON(w, r, &req) {
		return
	}

	update := domain.ProfileUpdate{
		DisplayName: user.DisplayName,
		Locale:      user.Locale,
		Timezone:    user.Timezone,
		Location:    user.Location,
		BirthDate:   user.BirthDate,
		BirthTime:   user.BirthTime,
		BirthPlace:  user.BirthPlace,
	}
	if req.DisplayName != nil {
		update.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Locale != nil {
		update.Locale = strings.TrimSpace(*req.Locale)
	}
	if req.Timezone != nil {
		tz, err := scheduleuc.NormalizeTimezone(*req.Timezone)
		if err != nil {
			a.writeDomainError(w, err)
			return
		}
		update.Timezone = tz
	}
	if req.Location != nil {
		update.Location = *req.Location
	}
	if req.LocationQuery != nil {
		loc, err := a.locator.Resolve(r.Context(), *req.LocationQuery)
		if err != nil {
			httpinfra.WriteError(w, http.StatusBadRequest, errors.New("location not found"))
			return
		}
		update.Location = loc
	}
	if req.BirthDate != nil {
		if *req.BirthDate == "" {
			update.BirthDate = nil
		} else {
			parsed, err := time.Parse(domain.DateLayout, *req.BirthDate)
			if err != nil {
				httpinfra.WriteError(w, http.StatusBadRequest, errors.New("birth_date must be YYYY-MM-DD"))
				return
			}
			update.BirthDate = &parsed
		}
	}
	if req.BirthTime != nil {
		update.BirthTime = strings.TrimSpace(*req.BirthTime)
	}
	if req.BirthPlace != nil {
		update.BirthPlace = strings.TrimSpace(*req.BirthPlace)
	}

	if err := a.identity.Update(r.Context(), user.ID, update); err != nil {
		a.writeDomainError(w, err)
		return
	}
	fresh, err := a.users.GetByID(user.ID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toUserResponse(fresh))
}

type panchangResponse struct {
	Date           string                  `json:"date"`
	Location       string                  `json:"location"`
	Sunrise        string                  `json:"sunrise"`
	Sunset         string                  `json:"sunset"`
	Tithi          string                  `json:"tithi"`
	Paksha         string                  `json:"paksha"`
	Nakshatra      string                  `json:"nakshatra"`
	Pada           int                     `json:"pada"`
	Yoga           string                  `json:"yoga"`
	Karana         string                  `json:"karana"`
	Vara           string                  `json:"vara"`
	RahuKaal       domain.TimeWindow       `json:"rahu_kaal"`
	GulikaKaal     domain.TimeWindow       `json:"gulika_kaal"`
	Yamaganda      domain.TimeWindow       `json:"yamaganda"`
	AbhijitMuhurat domain.TimeWindow       `json:"abhijit_muhurat"`
	BrahmaMuhurta  domain.TimeWindow       `json:"brahma_muhurta"`
	Choghadiya     []domain.ChoghadiyaSlot `json:"choghadiya"`
	Planets        []domain.PlanetPosition `json:"planets"`
	GeneratedAt    time.Time               `json:"generated_at"`
}

func (a *api) panchangToday(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	date := domain.LocalDay(time.Now(), user.Timezone)
	p, err := a.panchang.ForDate(r.Context(), date, user.Location)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toPanchangResponse(p))
}

func (a *api) panchangByDate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	date, err := time.Parse(domain.DateLayout, chi.URLParam(r, "date"))
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
		return
	}
	p, err := a.panchang.ForDate(r.Context(), date, user.Location)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toPanchangResponse(p))
}

type calendarDayResponse struct {
	Date     string `json:"date"`
	Tithi    string `json:"tithi"`
	Festival bool   `json:"festival"`
	Label    string `json:"label,omitempty"`
}

func (a *api) calendarMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("year must be a number"))
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("month must be a number"))
		return
	}
	days, err := a.panchang.MonthOverview(year, time.Month(month))
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	resp := make([]calendarDayResponse, 0, len(days))
	for _, day := range days {
		resp = append(resp, calendarDayResponse{
			Date:     day.Date.Format(domain.DateLayout),
			Tithi:    day.Tithi,
			Festival: day.Festival,
			Label:    day.Label,
		})
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"year": year, "month": month, "days": resp})
}

type insightResponse struct {
	Date     string `json:"date"`
	Location string `json:"location"`
	Language string `json:"language"`
	Text     string `json:"text"`
	Model    string `json:"model"`
}

func (a *api) dailyInsight(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	date := domain.LocalDay(time.Now(), user.Timezone)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			httpinfra.WriteError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	language := r.URL.Query().Get("language")
	if language == "" {
		language = user.Locale
	}
	p, err := a.panchang.ForDate(r.Context(), date, user.Location)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	ins := a.panchang.DailyInsight(r.Context(), p, language)
	httpinfra.WriteJSON(w, http.StatusOK, insightResponse{
		Date:     ins.Date.Format(domain.DateLayout),
		Location: ins.Location,
		Language: ins.Language,
		Text:     ins.Text,
		Model:    ins.Model,
	})
}

type askRequest struct {
	Question string `json:"question"`
	Date     string `json:"date"`
}

type askResponse struct {
	Answer         string `json:"answer"`
	RemainingToday int    `json:"remaining_today"`
}

func (a *api) ask(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	var req askRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	date := domain.LocalDay(time.Now(), user.Timezone)
	if req.Date != "" {
		parsed, err := time.Parse(domain.DateLayout, req.Date)
		if err != nil {
			httpinfra.WriteError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	answer, err := a.assistant.Ask(r.Context(), user.ID, date, req.Question)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, askResponse{
		Answer:         answer.Text,
		RemainingToday: answer.State.RemainingToday(),
	})
}

type chatMessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *api) history(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	messages, err := a.assistant.History(r.Context(), user.ID, limit)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	resp := make([]chatMessageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, chatMessageResponse{
			ID:        msg.ID,
			Role:      msg.Role,
			Text:      msg.Text,
			Date:      msg.Date.Format(domain.DateLayout),
			CreatedAt: msg.CreatedAt,
		})
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"messages": resp})
}

type deliveryRequest struct {
	DailyTime string `json:"daily_time"`
}

func (a *api) updateDelivery(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	var req deliveryRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	if req.DailyTime == "" {
		if err := a.schedule.UpdateDailyTime(r.Context(), user.ID, nil); err != nil {
			a.writeDomainError(w, err)
			return
		}
		httpinfra.WriteJSON(w, http.StatusOK, map[string]string{"daily_time": ""})
		return
	}
	parsed, err := scheduleuc.ParseDailyTime(req.DailyTime)
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("daily_time must be HH:MM"))
		return
	}
	if err := a.schedule.UpdateDailyTime(r.Context(), user.ID, &parsed); err != nil {
		a.writeDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]string{"daily_time": parsed.Format("15:04")})
}

func (a *api) deliverNow(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	if err := a.schedule.EnqueueNow(r.Context(), user); err != nil {
		a.writeDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

type feedbackRequest struct {
	Message string `json:"message"`
}

func (a *api) postFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("message is empty"))
		return
	}
	if err := a.feedback.SaveFeedback(r.Context(), domain.Feedback{UserID: user.ID, Message: message}); err != nil {
		a.writeDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (a *api) currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	userID, ok := httpinfra.UserIDFrom(r.Context())
	if !ok {
		httpinfra.WriteError(w, http.StatusUnauthorized, errors.New("not authenticated"))
		return domain.User{}, false
	}
	user, err := a.users.GetByID(userID)
	if err != nil {
		a.writeDomainError(w, err)
		return domain.User{}, false
	}
	return user, true
}

func (a *api) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}

func (a *api) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpinfra.WriteError(w, http.StatusNotFound, errors.New("not found"))
	case errors.Is(err, domain.ErrEmailTaken):
		httpinfra.WriteError(w, http.StatusConflict, errors.New("email already registered"))
	case errors.Is(err, domain.ErrInvalidCredentials):
		httpinfra.WriteError(w, http.StatusUnauthorized, errors.New("invalid credentials"))
	case errors.Is(err, assistantuc.ErrQuotaExceeded):
		httpinfra.WriteError(w, http.StatusTooManyRequests, errors.New("question limit reached for today"))
	case errors.Is(err, assistantuc.ErrEmptyQuestion):
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("question is empty"))
	case errors.Is(err, panchanguc.ErrInvalidMonth):
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("invalid calendar month"))
	case errors.Is(err, scheduleuc.ErrInvalidTimezone):
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("unknown timezone"))
	case errors.Is(err, scheduleuc.ErrNoChatLinked):
		httpinfra.WriteError(w, http.StatusConflict, errors.New("no telegram chat linked"))
	default:
		a.log.Error().Err(err).Msg("api: request failed")
		httpinfra.WriteError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{UserID: s.UserID, Email: s.Email, Token: s.Token, ExpiresAt: s.ExpiresAt}
}

func toUserResponse(u domain.User) userResponse {
	resp := userResponse{
		ID:             u.ID,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		Locale:         u.Locale,
		Timezone:       u.Timezone,
		Location:       u.Location,
		BirthTime:      u.BirthTime,
		BirthPlace:     u.BirthPlace,
		Plan:           u.Plan().Name,
		TelegramLinked: u.TelegramChatID != nil,
		AsksToday:      u.AsksToday,
	}
	if u.BirthDate != nil {
		resp.BirthDate = u.BirthDate.Format(domain.DateLayout)
	}
	if u.DailyTime != nil {
		resp.DailyTime = u.DailyTime.Format("15:04")
	}
	return resp
}

func toPanchangResponse(p domain.Panchang) panchangResponse {
	return panchangResponse{
		Date:           p.DateKey(),
		Location:       p.Location,
		Sunrise:        p.Sunrise,
		Sunset:         p.Sunset,
		Tithi:          p.Tithi,
		Paksha:         p.Paksha,
		Nakshatra:      p.Nakshatra,
		Pada:           p.Pada,
		Yoga:           p.Yoga,
		Karana:         p.Karana,
		Vara:           p.Vara,
		RahuKaal:       p.RahuKaal,
		GulikaKaal:     p.GulikaKaal,
		Yamaganda:      p.Yamaganda,
		AbhijitMuhurat: p.AbhijitMuhurat,
		BrahmaMuhurta:  p.BrahmaMuhurta,
		Choghadiya:     p.Choghadiya,
		Planets:        p.Planets,
		GeneratedAt:    p.GeneratedAt,
	}
}
