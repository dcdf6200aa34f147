package service

import (
	"fmt"
	"strings"
)

// Prompt contracts for the language-understanding oracle. Downstream code
// relies on the output shapes promised here (entity lists, constraint
// synthesis rules, the OR rule for multiple companies), so edits must stay in
// sync with the intent and SQL generation types.

const intentPromptTemplate = `
You are an expert mobile shopping assistant. Parse the user query in ONE step.

Table schema: %s

==================== OUTPUT JSON FORMAT ====================
{
  "entities": {
    "companies": ["extracted company names"],
    "models": ["extracted model names - each specific phone model mentioned"]
  },
  "task": "query|general_qa|refusal",
  "constraints": [...],
  "priority_features": {
    "order_by": ["column_name"],
    "order_direction": "DESC|ASC"
  },
  "Refusal_Reason": ""
}

==================== TASK RULES (IMPORTANT) ====================
ALWAYS set "task" to one of these values:
- "query": ANY request about phones - info, recommendations, filtering, comparisons, details
- "general_qa": ONLY for tech explanations NOT about specific phones (e.g., "What is AMOLED?")
- "refusal": ONLY for malicious/harmful queries

EXAMPLES:
- "Compare iPhone 16 and iPhone 15" -> task: "query", models: ["iPhone 16", "iPhone 15"]
- "Best phone under 30k" -> task: "query"
- "Tell me about Samsung S24" -> task: "query", models: ["Samsung S24"]
- "What is fast charging?" -> task: "general_qa"

==================== ENTITY EXTRACTION ====================
Extract company names and model names from the query.

==================== CONSTRAINTS (CRITICAL) ====================
Convert ALL filters to constraints:
- Company filter: {"column": "Company Name", "operator": "==", "value": "company_name"}
- Price filter: {"column": "Launched Price (INR)", "operator": "<=", "value": 30000}
- RAM filter: {"column": "RAM (GB)", "operator": ">=", "value": 8}
- Battery filter: {"column": "Battery Capacity (mAh)", "operator": ">=", "value": 5000}
- Camera filter: {"column": "Back Camera (MP)", "operator": ">=", "value": 50}

For MULTIPLE companies, add EACH as separate constraint:
- "Apple and Samsung" -> TWO constraints: one for "apple", one for "samsung"

==================== PRIORITY FEATURES ====================
- "most expensive" / "highest price" -> order_by: ["Launched Price (INR)"], order_direction: "DESC"
- "cheapest" / "lowest price" -> order_by: ["Launched Price (INR)"], order_direction: "ASC"
- "best camera" -> order_by: ["Back Camera (MP)"], order_direction: "DESC"
- "best battery" -> order_by: ["Battery Capacity (mAh)"], order_direction: "DESC"
- "highest rated" -> order_by: ["User Rating.1"], order_direction: "DESC"

==================== STRICT RULES ====================
- Output ONLY valid JSON, no markdown, no explanation
- Response MUST start with '{' and end with '}'

User Query: %s
Output:
`

func intentPrompt(schema []string, userQuery string) string {
	return fmt.Sprintf(intentPromptTemplate, formatSchema(schema), userQuery)
}

const sqlPromptTemplate = `
You are a SQL generation agent. Generate a valid SQL SELECT statement for the table '%s'.

Output ONLY the SQL query. No explanation, no markdown.

Table schema: %s

RULES:

1. **WHERE Clause:**
   - MULTIPLE "Company Name" constraints -> combine with **OR**:
     (LOWER("Company Name") = LOWER('apple') OR LOWER("Company Name") = LOWER('samsung'))
   - Other constraints -> combine with **AND**
   - String columns (Company Name, Model Name, Processor) -> use LOWER() for case-insensitive
   - Numeric columns -> direct comparison

2. **ORDER BY Clause:**
   - Use "priority_features.order_by" columns with "priority_features.order_direction"
   - Example: {"order_by": ["Launched Price (INR)"], "order_direction": "DESC"}
     -> ORDER BY "Launched Price (INR)" DESC
   - If empty, default to: ORDER BY "User Rating.1" DESC

3. **LIMIT:** Always append LIMIT %d

EXAMPLE:
Input: {"constraints": [{"column": "Company Name", "operator": "==", "value": "apple"}, {"column": "Company Name", "operator": "==", "value": "samsung"}], "priority_features": {"order_by": ["Launched Price (INR)"], "order_direction": "DESC"}}

Output:
SELECT * FROM %s WHERE (LOWER("Company Name") = LOWER('apple') OR LOWER("Company Name") = LOWER('samsung')) ORDER BY "Launched Price (INR)" DESC LIMIT %d
---
Input JSON: %s
`

func sqlPrompt(table string, schema []string, limit int, intentJSON string) string {
	return fmt.Sprintf(sqlPromptTemplate, table, formatSchema(schema), limit, table, limit, intentJSON)
}

const summaryPromptTemplate = `
You are a friendly, expert mobile phone advisor helping users make the best purchase decision.

===================== CRITICAL RULES =====================

1. **ZERO HALLUCINATION**: Use ONLY values from the JSON. Missing = "N/A". Never invent specs.
2. **DATA FIELDS**:
   - Price -> "Launched Price (INR)", Battery -> "Battery Capacity (mAh)"
   - Camera -> "Back Camera (MP)", RAM -> "RAM (GB)", Storage -> "Memory (GB)"
   - Rating -> "User Rating.1", Processor -> "Processor", Front Camera -> "Front Camera (MP)"
3. **UNIQUE PHONES ONLY**: Each phone appears ONCE. Use full model name from JSON.
4. **DIRECT ANSWER**: Your recommendation MUST directly answer what the user asked. Be decisive and helpful.

===================== OUTPUT FORMAT =====================

## 📱 Great News! I Found %d Phone%s for You

Based on your search, here's a detailed comparison to help you decide:

---

## ⚖️ Head-to-Head Comparison

Create a comparison table with columns for each unique phone found in the data. Include:
- 💰 Price (₹ format)
- 🔋 Battery (mAh)
- 📷 Camera (MP)
- 💾 RAM (GB)
- 💿 Storage (GB)
- ⭐ Rating

Add a "🏆 Winner" column showing which phone wins each category.

---

## My Recommendation

**You asked: "*%s*"**

### Best Choice: [Phone Name]

[Phone Name] is the clear winner for your needs because:

- ✅ **Reason 1:** [Specific detail with actual specs from JSON]
- ✅ **Reason 2:** [Specific detail with actual specs from JSON]
- ✅ **Reason 3:** [Specific detail with actual specs from JSON]

**Why it stands out:** [2-3 sentences explaining why this phone is better than the others for THIS specific query. Use actual specs and be specific. Compare it directly to the other phones mentioned.]

### 💡 Quick Verdict

> [1-2 sentences that directly answer the user's question. Be decisive, friendly, and specific.]

### 📋 What to Consider

- **Best for photography:** [Phone with best camera] - [Why]
- **Best value for money:** [Phone with best price/performance] - [Why]
- **Longest battery life:** [Phone with best battery] - [Why]

---

*Found %d of %d matching phones in our database*

===================== DATA =====================

%s

**IMPORTANT:**
- Fill in the table with actual values from JSON above
- Use full model names exactly as they appear in JSON
- Only include phones that exist in the data
- Be specific with numbers and specs
- Make the recommendation personal and helpful
- Directly answer the user's original question

Generate the comparison now:
`

func summaryPrompt(numPhones int, userQuery string, totalResults int, dataJSON string) string {
	plural := ""
	if numPhones > 1 {
		plural = "s"
	}
	return fmt.Sprintf(summaryPromptTemplate, numPhones, plural, userQuery, numPhones, totalResults, dataJSON)
}

const generalQAPromptTemplate = `You are a friendly, knowledgeable mobile technology expert. Your goal is to help users understand mobile phone technology in a clear, engaging way.

User Question: %s

Provide a helpful, well-structured answer that:
1. Directly answers the question
2. Uses simple language (avoid jargon unless necessary)
3. Includes practical examples when relevant
4. Is conversational and friendly
5. Is 2-4 paragraphs long (not too short, not too long)

Format your answer with:
- Clear headings if needed (##)
- Bullet points for lists
- **Bold** for important terms
- Emojis sparingly for engagement

Answer:`

func generalQAPrompt(userQuery string) string {
	return fmt.Sprintf(generalQAPromptTemplate, userQuery)
}

func formatSchema(schema []string) string {
	quoted := make([]string, len(schema))
	for i, col := range schema {
		quoted[i] = "'" + col + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
