package sdapi

// Fixed generation parameters. The LoRA suffix pairs with the 4-step LCM
// sampler settings and is appended to every prompt.
const (
	LoraSuffix    = "<lora:dmd2_sdxl_4step_lora_fp16:1>"
	DefaultSteps  = 7
	DefaultCFG    = 1.0
	DefaultWidth  = 640
	DefaultHeight = 960
	SamplerName   = "LCM"
	SchedulerName = "Automatic"
)

// Request describes one batch generation.
type Request struct {
	Prompt         string
	NegativePrompt string
	Seed           int64 // -1 for random
	BatchSize      int
}

// txt2imgPayload is the body of POST /sdapi/v1/txt2img.
type txt2imgPayload struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"cfg_scale"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	SaveImages     bool    `json:"save_images"`
	SamplerName    string  `json:"sampler_name"`
	Scheduler      string  `json:"scheduler"`
	RestoreFaces   bool    `json:"restore_faces"`
	BatchSize      int     `json:"batch_size"`
	Seed           int64   `json:"seed"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
}

// Progress is the subset of GET /sdapi/v1/progress we surface.
type Progress struct {
	Progress    float64 `json:"progress"`
	ETARelative float64 `json:"eta_relative"`
	State       struct {
		Job           string `json:"job"`
		JobCount      int    `json:"job_count"`
		SamplingStep  int    `json:"sampling_step"`
		SamplingSteps int    `json:"sampling_steps"`
		Interrupted   bool   `json:"interrupted"`
	} `json:"state"`
}

// Model is one entry of GET /sdapi/v1/sd-models.
type Model struct {
	Title     string  `json:"title"`
	ModelName string  `json:"model_name"`
	Hash      *string `json:"hash"`
	SHA256    *string `json:"sha256"`
	Filename  string  `json:"filename"`
	Config    *string `json:"config"`
}

// errorBody is the FastAPI error shape returned on failures.
type errorBody struct {
	Error  string `json:"error"`
	Detail any    `json:"detail"`
	Errors string `json:"errors"`
}
