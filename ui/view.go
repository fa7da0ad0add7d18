package ui

import (
	"errors"
	"fmt"

	"bikebuyers/ml"
)

// 置信度分档阈值, 作用于显示的置信度
const (
	strongThreshold   = 0.75
	moderateThreshold = 0.55
)

const (
	BannerSuccess = "success"
	BannerWarning = "warning"
	BannerError   = "error"
)

// Banner 页面提示
type Banner struct {
	Kind    string
	Message string
}

// ResultView 预测结果的展示数据
type ResultView struct {
	Banner     Banner
	Confidence float64 // [0,1], 对所显示判断的置信度
	Percent    int     // 进度条
	Tier       string
}

// ConfidenceText 保留一位小数的百分比
func (v ResultView) ConfidenceText() string {
	return fmt.Sprintf("%.1f%%", v.Confidence*100)
}

// Confidence 对模型判断的置信度: 预测为1取p, 否则取1-p
func Confidence(result ml.PredictionResult) float64 {
	if result.Prediction == 1 {
		return result.Probability
	}
	return 1 - result.Probability
}

// ConfidenceTier strong / moderate / borderline
func ConfidenceTier(confidence float64) string {
	switch {
	case confidence > strongThreshold:
		return "strong"
	case confidence > moderateThreshold:
		return "moderate"
	default:
		return "borderline"
	}
}

func NewResultView(result ml.PredictionResult) ResultView {
	confidence := Confidence(result)
	banner := Banner{Kind: BannerWarning, Message: "Unlikely to buy a bike"}
	if result.Prediction == 1 {
		banner = Banner{Kind: BannerSuccess, Message: "Likely to buy a bike"}
	}
	return ResultView{
		Banner:     banner,
		Confidence: confidence,
		Percent:    int(confidence * 100),
		Tier:       ConfidenceTier(confidence),
	}
}

// ErrorBanner 将调用失败转换为提示
func ErrorBanner(err error) Banner {
	var transient *TransientNetworkError
	var apiErr *APIError
	switch {
	case errors.As(err, &transient) && transient.Timeout():
		return Banner{Kind: BannerError, Message: "API waking up. Try again in 10 seconds."}
	case errors.As(err, &transient):
		return Banner{Kind: BannerError, Message: "Cannot reach prediction server."}
	case errors.As(err, &apiErr):
		return Banner{Kind: BannerError, Message: fmt.Sprintf("API error (%d)", apiErr.StatusCode)}
	default:
		return Banner{Kind: BannerError, Message: "Unexpected response from prediction server."}
	}
}
