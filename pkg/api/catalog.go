package api

import "time"

// Service представляет услугу каталога с публичной ссылкой на изображение
type Service struct {
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	ID            string    `json:"id"`
	TitleEN       string    `json:"title_en"`
	TitleAR       string    `json:"title_ar"`
	DescriptionEN string    `json:"description_en"`
	DescriptionAR string    `json:"description_ar"`
	Image         string    `json:"img"`
}

// ServiceResponse представляет ответ на создание услуги
type ServiceResponse struct {
	Message string  `json:"message"`
	Service Service `json:"service"`
}

// Media представляет элемент медиатеки с публичной ссылкой на файл
type Media struct {
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	ID            string    `json:"id"`
	TitleEN       string    `json:"title_en"`
	TitleAR       string    `json:"title_ar"`
	DescriptionEN string    `json:"description_en"`
	DescriptionAR string    `json:"description_ar"`
	MediaURL      string    `json:"mediaUrl"`
	MediaType     string    `json:"mediaType"`
	MimeType      string    `json:"mimeType"`
	UploadedBy    string    `json:"uploadedBy,omitempty"`
	Size          int64     `json:"size"`
}

// MediaResponse представляет ответ на загрузку медиафайла
type MediaResponse struct {
	Message string `json:"message"`
	Media   Media  `json:"media"`
}

// QuoteRequest представляет заявку на расчет стоимости с сайта
type QuoteRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Quote представляет сохраненную заявку
type Quote struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
}

// QuoteResponse представляет ответ на создание заявки
type QuoteResponse struct {
	Message string `json:"message"`
	Quote   Quote  `json:"quote"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
