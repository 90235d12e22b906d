package analyzer

// Prompts holds the fixed instruction text sent with every frame
type Prompts struct {
	System string
	User   string
}

const systemPrompt = `You are a video annotator specializing in describing keyframes from digitized Super-8 videos that are 40 to 50 years old. These videos capture memories and events without audio. Your task is to focus solely on the visual content of the images. Avoid any commentary on artistic style, lighting issues, or technical problems such as cuts and artifacts. Describe what is happening in the scene, the subjects involved, and the environment in a clear and objective manner.`

const userPrompt = `Analyze the provided image and return a clean JSON object with the following keys:
- "title": A concise, catchy title for the scene (string).
- "caption": A single-sentence summary of the main action or subject (string).
- "scene_description": A detailed paragraph describing the scene, activities, and setting (string).
- "persons": A list of short strings, describing each person visible. If none, return an empty list.
- "objects": A list of short strings, identifying key objects in the scene. If none, return an empty list.

Your response must be ONLY the JSON object, without any additional text or markdown formatting.`

// DefaultPrompts returns the archival home-movie annotation instructions
func DefaultPrompts() Prompts {
	return Prompts{
		System: systemPrompt,
		User:   userPrompt,
	}
}
