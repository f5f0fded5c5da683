package types

var SummarySystemPrompt = `你是一个专业的视频内容总结助手，擅长提取视频的核心内容并生成简洁的总结。`

var ChatSystemPrompt = `你是一个专业、简洁、可靠的中文助手。请直接回答用户问题。`

// SummaryPrompt takes the title, the description and the cleaned subtitle text.
var SummaryPrompt = `请根据以下视频的字幕内容，生成一个简洁明了的总结：

视频标题：%s
视频描述：%s

字幕内容：
%s

请提供一个结构化的总结，包括：
1. 主要内容概述
2. 关键点提取
3. 适合的标签（用逗号分隔）

总结应该简洁明了，字数控制在500字以内。
重要：只输出最终总结，不要输出思考过程、推理步骤或分析草稿。`

// ChatContextPrompt wraps a previously generated summary for the chat mode.
var ChatContextPrompt = `以下是用户之前生成的视频总结，请基于它回答后续问题：

%s`
