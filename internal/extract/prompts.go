package extract

// Per-language prompt templates. The %s placeholder receives the cleaned
// defect report text. Both templates demand strict JSON with the six
// schema fields and forbid guessing severity: anything unstated must come
// back as "UnKnow".

const promptZH = `请从以下缺陷报告文本中提取指定字段，严格按照 JSON 格式输出，不要添加任何额外解释或文本：

需要提取的字段说明：
- title: 缺陷标题（简洁概括，不超过50字）
- description: 缺陷详细描述（完整说明问题现象）
- version: 缺陷出现的软件版本号（无则为空字符串）
- severity: 缺陷严重程度（可选值：Critical, High, Medium, Low, UnKnow）
- steps_to_reproduce: 复现步骤（数组格式，每个元素为一个步骤）
- stack_trace: 堆栈跟踪信息

缺陷报告文本：
%s

输出要求：
1. 即使信息不全，也必须返回完整的JSON结构，缺失字段填空字符串/空列表；
2. 禁止使用单引号，所有字符串用双引号；
3. 禁止添加多余逗号、注释或其他文本；
4. steps_to_reproduce 必须是数组类型（即使为空也返回[]）；
5. 输出的字段值语言需与输入文本保持一致；
6. severity无明确值时返回UnKnow，避免主观判定。`

const promptEN = `Extract the specified fields from the following defect report text, output strictly in JSON format, and do not add any additional explanations or text:

Fields to extract:
- title: Defect title (concise summary, no more than 50 characters)
- description: Detailed description of the defect (complete explanation of the problem)
- version: Software version number where the defect occurred (empty string if none)
- severity: Defect severity (allowed values: Critical, High, Medium, Low, UnKnow)
- steps_to_reproduce: Steps to reproduce (array format, each element is one step)
- stack_trace: Stack trace information

Defect report text:
%s

Output requirements:
1. Even if information is incomplete, return the complete JSON structure, filling missing fields with empty strings/empty lists;
2. Do not use single quotes, all strings use double quotes;
3. Do not add extra commas, comments, or other text;
4. steps_to_reproduce must be an array type (return [] even if empty);
5. The language of the output field values must match the input text;
6. Do not infer information that is not explicitly stated (report severity as UnKnow when unclear).`

const systemPromptZH = `你是一个专业的缺陷信息提取助手，严格按照要求输出 JSON 格式数据，输出内容的语言需与用户输入文本保持一致。`

const systemPromptEN = `You are a professional defect information extraction assistant. Output JSON format data strictly as required, keeping the language of the output consistent with the user's input text.`

// promptFor returns the (system, template) pair for a detected language.
func promptFor(lang string) (system, template string) {
	if lang == "zh" {
		return systemPromptZH, promptZH
	}
	return systemPromptEN, promptEN
}
