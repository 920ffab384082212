package ai

const PROMPT_DISTILL_TAGS_CN = `
你是一个专业的知识标签生成助手。我需要你帮我为主题"${tag}"生成${number}个子标签。

标签完整链路是：${tag_path}

请遵循以下规则：
1. 生成的标签应该是"${tag}"领域内的专业子类别或子主题
2. 每个标签应该简洁、明确，通常为2-6个字
3. 标签之间应该有明显的区分，覆盖不同的方面
4. 标签应该是名词或名词短语，不要使用动词或形容词
5. 标签需要带有明确的序号。如果父标签带有序号（如 1 汽车），子标签应为 1.1 汽车品牌、1.2 汽车型号；如果父标签没有序号，子标签应为 1 汽车品牌、2 汽车型号
${existing}

请直接以JSON数组格式返回标签，不要有任何额外的解释或说明，格式如下：
["序号 标签1", "序号 标签2", "序号 标签3", ...]
`

const PROMPT_DISTILL_TAGS_EN = `
You are a professional knowledge tag generation assistant. I need you to generate ${number} sub-tags for the topic "${tag}".

Tag hierarchy path: ${tag_path}

Please follow these rules:
1. The generated tags should be professional sub-categories or sub-topics within the "${tag}" domain.
2. Each tag should be concise and clear.
3. Tags should be distinct from each other, covering different aspects.
4. Tags should be nouns or noun phrases. Avoid using verbs or adjectives.
5. Tags should have explicit numbering. If the parent tag is numbered (e.g., 1 Automobiles), sub-tags should be 1.1 Car Brands, 1.2 Car Models, etc.
6. If the parent tag has no number (e.g., Automobiles), sub-tags should be 1 Car Brands, 2 Car Models, etc.
${existing}

Please return the tags directly in JSON array format without any additional explanations, like this:
["Number Tag1", "Number Tag2", "Number Tag3", ...]
`

const PROMPT_DISTILL_QUESTIONS_CN = `
你是一个专业的知识问题生成助手。我需要你帮我为标签"${tag}"生成${number}个高质量的问题。

标签完整链路是：${tag_path}

请遵循以下规则：
${global_prompt}
1. 生成的问题应该与"${tag}"主题紧密相关
2. 问题应该具有教育价值和实用性
3. 问题应该清晰、明确，避免模糊或过于宽泛的表述
4. 问题的形式可以多样化，包括事实性问题、概念性问题、分析性问题等
${existing}

请直接以JSON数组格式返回问题，不要有任何额外的解释或说明，格式如下：
["问题1", "问题2", "问题3", ...]
`

const PROMPT_DISTILL_QUESTIONS_EN = `
You are a professional question generation assistant. I need you to help me generate ${number} high-quality questions about "${tag}".

Tag path: ${tag_path}

Please follow these rules:
${global_prompt}
1. The questions should be directly related to the "${tag}" topic
2. Generate diverse questions covering different aspects of the topic
3. Questions should be clear, specific, and well-formulated
4. Each question should be self-contained and not require additional context
${existing}

Please return the questions directly in JSON array format, without any additional explanation or description, in the following format:
["Question 1?", "Question 2?", "Question 3?", ...]
`

const PROMPT_GA_GENERATION_CN = `#身份和能力#
您是一位内容创作专家，擅长根据不同的[体裁]和[受众]改写文本，产出多样化和高质量的内容。

#工作流程#
请为原始文本生成5对适合的[体裁]和[受众]组合：
1. 首先分析源文本的特点，包括写作风格、信息内容和价值
2. 然后考虑如何在保持主要信息的同时，探索更广泛的受众和替代体裁

#详细要求#
1. 每一对都需要包含体裁的标题与描述（目的、结构、风格、深度），以及受众的标题与描述（人群、背景、动机）
2. 5对组合需要覆盖：学术研究、教育学习、专业实践、大众科普、技术专家
3. 只能返回如下格式的 JSON 数组：

[
  {
    "genre": {"title": "体裁标题", "description": "体裁描述"},
    "audience": {"title": "受众标题", "description": "受众描述"}
  }
]

不要包含任何解释性文字或 markdown 格式。

#待分析文本#
${text}`

const PROMPT_GA_GENERATION_EN = `#Identity and Capabilities#
You are a content creation expert, specializing in text analysis and rewriting, skilled at adapting content based on
varying [genres] and [audiences] to produce diverse and high-quality texts.

#Workflow#
Please generate 5 pairs of [genre] and [audience] combinations suitable for the original text:
1. First, analyze the characteristics of the source text, including writing style, information content, and value
2. Then, consider how to preserve the primary content while exploring broader audiences and alternative genres

#Detailed Requirements#
1. Each pair must include:
   - Genre: title and detailed description (purpose, structure, style, depth)
   - Audience: title and detailed description (demographics, background, motivation)
2. The 5 pairs should cover: academic research, education, professional practice, general audience, technical specialists
3. You must respond with ONLY a valid JSON array in this exact format:

[
  {
    "genre": {"title": "Genre Title", "description": "Detailed genre description"},
    "audience": {"title": "Audience Title", "description": "Detailed audience description"}
  }
]

Do not include any explanatory text, markdown formatting, or additional content.

#Source Text to Analyze#
${text}`

const PROMPT_QUESTION_CN = `
# 角色使命
你是一位专业的文本分析专家，擅长从复杂文本中提取关键信息并生成可用于模型微调的结构化数据（仅生成问题）。
${global_prompt}

## 核心任务
根据用户提供的文本（长度：${text_length} 字），生成不少于 ${number} 个高质量问题。

## 约束条件
- 问题必须基于文本内容直接生成
- 问题应具有明确的答案指向性
- 需覆盖文本的不同方面
- 禁止生成假设性、重复或相似问题
${ga_prompt}

## 输出格式
只输出 JSON 数组：["问题1", "问题2", "..."]

## 待处理文本
${text}

## 限制
- 禁止生成与材料本身相关的问题，例如作者、章节、目录等
`

const PROMPT_QUESTION_EN = `
# Role Mission
You are a professional text analysis expert, skilled at extracting key information from complex texts and generating structured data (only generate questions) that can be used for model fine-tuning.
${global_prompt}

## Core Task
Based on the text provided by the user (length: ${text_length} characters), generate no less than ${number} high-quality questions.

## Constraints
- Must be directly generated based on the text content.
- Questions should have a clear answer orientation.
- Should cover different aspects of the text.
- It is prohibited to generate hypothetical, repetitive, or similar questions.
${ga_prompt}

## Output Format
Output only a JSON array: ["Question 1", "Question 2", "..."]

## Text to be Processed
${text}

## Restrictions
- Questions should not be related to the material itself, such as the author, chapters or table of contents.
`

const PROMPT_QUESTION_GA_CN = `
## 特殊要求：体裁与受众视角提问
请根据以下体裁与受众组合调整提问方式：
**目标体裁**：${genre}
**目标受众**：${audience}
问题风格需要符合该体裁的表达习惯，深度需要适合该受众的知识背景。
`

const PROMPT_QUESTION_GA_EN = `
## Special Requirements - Genre & Audience Perspective Questioning
Adjust your questioning approach based on the following genre and audience combination:
**Target Genre**: ${genre}
**Target Audience**: ${audience}
Question style must match the genre, and question depth must suit the audience's background.
`

const PROMPT_QUESTION_LABEL_CN = `
请为下面每个问题从给定的标签列表中选择一个最匹配的标签。

## 标签列表
${existing_tags}

## 问题列表
${question}

只输出 JSON 数组，格式为：[{"question": "问题", "label": "标签"}]。没有合适标签时 label 填写 "其他"。
`

const PROMPT_QUESTION_LABEL_EN = `
Choose the best matching label from the label list for every question below.

## Labels
${existing_tags}

## Questions
${question}

Output only a JSON array: [{"question": "question text", "label": "label"}]. Use "Other" when no label fits.
`

const PROMPT_ANSWER_CN = `
# 角色使命
你是一位专业的数据标注专家，请根据参考内容回答问题，用于大模型微调。
${global_prompt}

## 答案要求
- 答案必须基于参考内容，不得编造
- 答案需要完整、准确，并且逻辑清晰
- 不要在答案中提及“参考内容”“文献”等字样
${ga_prompt}

## 参考内容
${text}

## 问题
${question}
`

const PROMPT_ANSWER_EN = `
# Role Mission
You are a professional data annotation expert. Answer the question based on the reference content; the result is used for fine-tuning large language models.
${global_prompt}

## Answer Requirements
- The answer must be based on the reference content without fabrication
- The answer must be complete, accurate and logically clear
- Do not mention phrases like "reference content" or "the document" in the answer
${ga_prompt}

## Reference Content
${text}

## Question
${question}
`

const PROMPT_DOMAIN_TREE_CN = `
你是一位领域分类专家。请根据下面的文档目录，构建一个不超过两级的领域标签树。

## 目录
${toc}

## 要求
- 一级标签 5 到 10 个，每个一级标签下 1 到 10 个二级标签
- 标签带有序号，例如 "1 汽车"、"1.1 汽车品牌"
- 只输出 JSON 数组，格式为：[{"label": "1 一级标签", "child": [{"label": "1.1 二级标签"}]}]
`

const PROMPT_DOMAIN_TREE_EN = `
You are a domain classification expert. Build a domain label tree of at most two levels from the table of contents below.

## Table of Contents
${toc}

## Requirements
- 5 to 10 first-level labels, each with 1 to 10 second-level labels
- Labels are numbered, e.g. "1 Automobiles", "1.1 Car Brands"
- Output only a JSON array: [{"label": "1 First Level", "child": [{"label": "1.1 Second Level"}]}]
`

const PROMPT_DOMAIN_TREE_APPEND_CN = `
你是一位领域分类专家。项目已有如下领域标签树，请结合新增文档的目录对其进行修订，保留仍然适用的标签，必要时新增或调整标签。

## 现有标签树
${existing_tags}

## 新增目录
${toc}

## 要求
- 最多两级，标签带有序号
- 只输出修订后的完整 JSON 数组，格式为：[{"label": "1 一级标签", "child": [{"label": "1.1 二级标签"}]}]
`

const PROMPT_DOMAIN_TREE_APPEND_EN = `
You are a domain classification expert. The project already has the domain label tree below. Revise it with the table of contents of the newly added documents: keep labels that still apply and add or adjust labels where needed.

## Existing Label Tree
${existing_tags}

## New Table of Contents
${toc}

## Requirements
- At most two levels, labels are numbered
- Output only the complete revised JSON array: [{"label": "1 First Level", "child": [{"label": "1.1 Second Level"}]}]
`

const PROMPT_VISION_CONVERT_CN = `
请将这张 PDF 页面图片（第 ${page} 页）完整转换为 Markdown：
- 保留标题层级、段落、列表和表格结构
- 公式使用 LaTeX 表示
- 忽略页眉、页脚和页码
- 只输出 Markdown 内容，不要任何解释
`

const PROMPT_VISION_CONVERT_EN = `
Convert this PDF page image (page ${page}) into Markdown completely:
- Keep heading levels, paragraphs, lists and table structure
- Use LaTeX for formulas
- Ignore headers, footers and page numbers
- Output Markdown only, without any explanation
`

const PROMPT_VISION_RETITLE_CN = `
以下是逐页识别得到的 Markdown 标题列表，由于逐页识别，标题层级可能不一致。请根据编号与语义修正每个标题的层级。

${headings}

只输出 JSON 数组，长度与输入一致，每一项为修正后的完整标题行（包含 # 前缀），例如 ["# 1 概述", "## 1.1 背景"]。
`

const PROMPT_VISION_RETITLE_EN = `
Below are the Markdown headings recognized page by page. Because pages were processed separately, heading levels may be inconsistent. Fix the level of every heading based on numbering and meaning.

${headings}

Output only a JSON array with the same length as the input; each item is the corrected heading line including its # prefix, e.g. ["# 1 Overview", "## 1.1 Background"].
`
